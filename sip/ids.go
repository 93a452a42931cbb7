package sip

import "github.com/ghettovoice/sipua/internal/util"

// MagicCookie is the branch prefix of RFC 3261 compliant transactions.
const MagicCookie = "z9hG4bK"

// GenerateCallID returns a new random Call-ID value.
func GenerateCallID() string { return util.RandString(32) }

// GenerateTag returns a new random From/To tag value.
func GenerateTag() string { return util.RandStringLC(16) }

// GenerateBranch returns a new random Via branch with the RFC 3261 magic cookie.
func GenerateBranch() string { return MagicCookie + "." + util.RandString(24) }
