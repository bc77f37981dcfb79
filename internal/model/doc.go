// Package model defines the core data structures used throughout contactscan.
//
// This package contains the following main types:
//   - ContactBundle: Emails and social-media profiles harvested from one site
//   - Business: A lead record enriched with contact data and a confidence score
//   - EmailCategory: The role classification of an email address
//   - SocialPlatform: The social networks the extractor recognizes
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, pipeline, session store and report writers all
// share these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for reports and
// session persistence.
package model
