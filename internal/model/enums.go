package model

type ReferralStatus string

const (
	ReferralStatusReady ReferralStatus = "ready"
)

// Backend names the store that served or persisted a referral page.
type Backend string

const (
	BackendPrimary  Backend = "primary"
	BackendFallback Backend = "fallback"
)

type StoreOp string

const (
	StoreOpGet    StoreOp = "get"
	StoreOpInsert StoreOp = "insert"
	StoreOpExists StoreOp = "exists"
)

type StoreResult string

const (
	StoreResultHit   StoreResult = "hit"
	StoreResultMiss  StoreResult = "miss"
	StoreResultOK    StoreResult = "ok"
	StoreResultError StoreResult = "error"
)
