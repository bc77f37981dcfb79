// Package extract pulls contact information out of raw page content.
//
// Two kinds of contacts are recognized:
//
//   - Email addresses, matched with a lenient pattern and then filtered by
//     ValidateEmail (well-formedness plus a blacklist of role-less or
//     placeholder mailboxes such as noreply@ and test@). Survivors are
//     classified with CategorizeEmail and scored with ConfidenceScore.
//   - Social profile links for six platforms (Facebook, Instagram, Twitter,
//     LinkedIn, YouTube, TikTok). Only the first link per platform counts.
//
// Extraction works on text, not on a DOM: addresses inside scripts,
// attributes and comments are found too. A candidate that fails validation
// is simply dropped; nothing in this package returns an error.
package extract
