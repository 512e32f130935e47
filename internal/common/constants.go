package common

// Trade actions as they appear in the persisted trade history
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Environment variable keys
const (
	EnvConfigFile         = "CONFIG_FILE"
	EnvDataDir            = "DATA_DIR"
	EnvListenPort         = "LISTEN_PORT"
	EnvMetricsPort        = "METRICS_PORT"
	EnvLookbackDays       = "LOOKBACK_DAYS"
	EnvInitialCapital     = "INITIAL_CAPITAL"
	EnvRiskFreeRate       = "RISK_FREE_RATE"
	EnvDrawdownWindowDays = "DRAWDOWN_WINDOW_DAYS"
	EnvMaxExposure        = "MAX_PORTFOLIO_EXPOSURE"
	EnvMaxPositions       = "MAX_POSITIONS"
	EnvMaxDrawdownAlert   = "MAX_DRAWDOWN_ALERT"
	EnvQuoteURL           = "QUOTE_URL"
	EnvQuoteTimeout       = "QUOTE_TIMEOUT"
	EnvRefreshInterval    = "REFRESH_INTERVAL"
	EnvLogLevel           = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultDataDir            = "data"
	DefaultListenPort         = 8085
	DefaultMetricsPort        = 8080
	DefaultLookbackDays       = 90
	DefaultInitialCapital     = 100000.0
	DefaultRiskFreeRate       = 0.02
	DefaultDrawdownWindowDays = 90
	DefaultMaxExposure        = 0.50
	DefaultMaxPositions       = 3
	DefaultMaxDrawdownAlert   = 0.15
)

// TradingDaysPerYear is the annualization factor shared by the return,
// volatility and ratio calculations.
const TradingDaysPerYear = 252

// Persisted file layout under the data directory
const (
	PaperTradingDir    = "paper_trading"
	PortfolioStateFile = "portfolio_state.json"
	TradeHistoryFile   = "trade_history.json"
	DailyLogsDir       = "daily_logs"
)

// DateFormat is the calendar-date layout used by all persisted records.
const DateFormat = "2006-01-02"

// Validation constants
const (
	MinPort          = 1024
	MaxPort          = 65535
	MaxRiskFreeRate  = 0.2
	MaxExposureLimit = 1.0
	MaxDrawdownCap   = 1.0
)
