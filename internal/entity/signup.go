package entity

import (
	"time"

	"github.com/google/uuid"
)

// Promotional tier attached to every captured signup. The tier carries no
// behavior; it is stored in the metadata for later campaigns.
const TierFoundingMember = "founding_member"

// FoundingMemberBenefits lists what the landing page promises founding
// members. Stored alongside each signup so the offer at capture time is
// auditable even if the copy changes later.
var FoundingMemberBenefits = []string{
	"50% lifetime discount",
	"early access",
	"founding member badge",
}

// Signup represents one captured email address.
type Signup struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
