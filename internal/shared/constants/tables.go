// Package constants centralizes database table names.
package constants

const (
	TableUsers          = "users"
	TableAgents         = "agents"
	TableAgentShares    = "agent_shares"
	TableForwards       = "forwards"
	TableForwardTraffic = "forward_traffic"
	TableEngineConfigs  = "engine_configs"
	TableWallets        = "wallets"
	TableBalanceLogs    = "balance_logs"
	TableTasks          = "tasks"
)
