package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/agenty/agenty-backend/internal/ai/schema"
)

// Prompt is a fully rendered request for one flow invocation.
type Prompt struct {
	Name       string
	Version    int
	System     string
	User       string
	Descriptor *schema.Descriptor
}

// Fingerprint identifies the rendered prompt in logs without exposing its text.
func (p Prompt) Fingerprint() string {
	h := sha256.Sum256([]byte(
		strings.TrimSpace(p.Name) + "|" +
			strconv.Itoa(p.Version) + "|" +
			strings.TrimSpace(p.System) + "|" +
			strings.TrimSpace(p.User),
	))
	return hex.EncodeToString(h[:])
}
