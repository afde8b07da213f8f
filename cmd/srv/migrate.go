package main

import (
	"github.com/luckycast/backend/migration"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(*cli.Context) error {
	s.loadBase(nil)

	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}

	return nil
}
