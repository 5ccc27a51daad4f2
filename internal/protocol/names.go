package protocol

// Envelope names.
const (
	NameSendMessage      = "sendMessage"
	NameSubscribeMessage = "subscribeMessage"
)

// Operations (request names carried inside a sendMessage envelope, or sent
// as the envelope name itself for authenticate/ssid).
const (
	OpAuthenticate       = "authenticate"
	OpSSID               = "ssid"
	OpGetBalances        = "internal-billing.get-balances"
	OpOpenOption         = "binary-options.open-option"
	OpSubscribePositions = "subscribe-positions"
	OpGetCandles         = "get-candles"
	OpGetInitData        = "get-initialization-data"
	OpSetUserSettings    = "set-user-settings"
	OpGetFinancialInfo   = "get-financial-information"
)

// Subscription channel names (portfolio-scoped variants of the push
// events below).
const (
	ChannelOrderChanged    = "portfolio.order-changed"
	ChannelPositionChanged = "portfolio.position-changed"
)

// Push event names.
const (
	EvAuthenticated         = "authenticated"
	EvTimeSync              = "timeSync"
	EvPositionChanged       = "position-changed"
	EvOrderChanged          = "order-changed"
	EvCandleGenerated       = "candle-generated"
	EvUnderlyingListChanged = "underlying-list-changed"
	EvProfile               = "profile"
	EvFeatures              = "features"
	EvUserSettings          = "user-settings"
	EvInitializationData    = "initialization-data"
	EvError                 = "error"
)

// Instrument categories, in lookup priority order. The same numeric asset
// id can be open in one category and suspended in another; faster
// categories win lookups because the platform exposes the instrument as
// more capable there.
var CategoryPriority = []string{
	CategoryBlitz,
	CategoryTurbo,
	CategoryBinary,
	CategoryDigital,
	CategoryDigitalOption,
}

const (
	CategoryBlitz         = "blitz"
	CategoryTurbo         = "turbo"
	CategoryBinary        = "binary"
	CategoryDigital       = "digital"
	CategoryDigitalOption = "digital-option"
)

// Blitz instrument identifiers used in order bodies and routing filters.
const (
	OptionTypeBlitz     = 12
	InstrumentTypeBlitz = "blitz-option"
)
