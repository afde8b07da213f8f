package common

import "fmt"

func RedisKeyUserStatus(userID string) string {
	return fmt.Sprintf("user:%s:status", userID)
}

func RedisKeyActiveRaffle() string {
	return "raffle:active"
}

func RedisKeyLeaderboard(raffleID string) string {
	return fmt.Sprintf("raffle:%s:leaderboard", raffleID)
}

func RedisKeyReconcileLock() string {
	return "raffle:reconcile:lock"
}
