package common

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "tumordetect_session"

// DefaultTargetLabel is the class label counted by the detection view.
const DefaultTargetLabel = "tumour"
