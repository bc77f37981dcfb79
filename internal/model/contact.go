package model

import (
	"maps"
	"slices"
	"strings"
)

// ContactBundle is the aggregated contact data harvested from one site.
// It is built up by a single crawl session and handed to the caller once
// the session finishes; callers should treat it as read-only after that.
type ContactBundle struct {
	// Emails holds validated addresses in discovery order, without duplicates.
	// Duplicates are detected case-insensitively; the first spelling wins.
	Emails []string `json:"emails"`

	// Social maps each platform to the profile URL found for it.
	Social map[SocialPlatform]string `json:"social_media"`
}

// NewContactBundle returns an empty bundle ready for accumulation.
func NewContactBundle() ContactBundle {
	return ContactBundle{
		Emails: []string{},
		Social: make(map[SocialPlatform]string),
	}
}

// AddEmail appends addr unless an equal address (ignoring case) is
// already present. It reports whether the address was added.
func (b *ContactBundle) AddEmail(addr string) bool {
	for _, e := range b.Emails {
		if strings.EqualFold(e, addr) {
			return false
		}
	}
	b.Emails = append(b.Emails, addr)
	return true
}

// MergeSocial overlays links onto the bundle. Existing entries for the
// same platform are replaced.
func (b *ContactBundle) MergeSocial(links map[SocialPlatform]string) {
	if len(links) == 0 {
		return
	}
	if b.Social == nil {
		b.Social = make(map[SocialPlatform]string, len(links))
	}
	maps.Copy(b.Social, links)
}

// Merge folds other into b: emails are unioned, social links overlaid.
func (b *ContactBundle) Merge(other ContactBundle) {
	for _, e := range other.Emails {
		b.AddEmail(e)
	}
	b.MergeSocial(other.Social)
}

// Empty reports whether the bundle holds no emails and no social links.
func (b ContactBundle) Empty() bool {
	return len(b.Emails) == 0 && len(b.Social) == 0
}

// Clone returns a deep copy of the bundle.
func (b ContactBundle) Clone() ContactBundle {
	out := ContactBundle{
		Emails: slices.Clone(b.Emails),
		Social: maps.Clone(b.Social),
	}
	if out.Emails == nil {
		out.Emails = []string{}
	}
	if out.Social == nil {
		out.Social = make(map[SocialPlatform]string)
	}
	return out
}
