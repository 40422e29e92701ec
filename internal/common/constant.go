package common

// SessionSlotKey is the name of the durable slot entry holding the
// persisted part of the session.
const SessionSlotKey = "auth-storage"

// SupportSender is the From address used for account emails.
const SupportSender = "support@insightpulse.dev"

// VerificationCodeLength is the number of digits in verification and reset codes.
const VerificationCodeLength = 6
