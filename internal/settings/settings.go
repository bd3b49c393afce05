// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

/*
Package settings manages the site-wide configuration editable from the
admin dashboard.

Unlike environment configuration (internal/platform/config), these values
change at runtime and persist in the database as key-value rows. The
package presents them as one strongly-typed snapshot: readers get a
[Settings] value, never a string map, so a typo'd key cannot silently read
as a missing value.
*/
package settings

import "strconv"

// Settings is the typed snapshot of all site settings.
type Settings struct {
	SiteTitle       string `json:"site_title"`
	SiteDescription string `json:"site_description"`
	SiteURL         string `json:"site_url"`
	AdminEmail      string `json:"admin_email"`

	PostsPerPage int  `json:"posts_per_page"`
	ShowAuthor   bool `json:"show_author"`
	ShowDate     bool `json:"show_date"`
	DarkMode     bool `json:"dark_mode"`

	NewCommentNotifications bool `json:"new_comment_notifications"`
	NewUserNotifications    bool `json:"new_user_notifications"`

	NewsletterEnabled bool `json:"newsletter_enabled"`
	CacheEnabled      bool `json:"cache_enabled"`
	DebugMode         bool `json:"debug_mode"`
}

// # Storage Keys

const (
	keySiteTitle       = "site_title"
	keySiteDescription = "site_description"
	keySiteURL         = "site_url"
	keyAdminEmail      = "admin_email"
	keyPostsPerPage    = "posts_per_page"
	keyShowAuthor      = "show_author"
	keyShowDate        = "show_date"
	keyDarkMode        = "dark_mode"
	keyNewCommentNotif = "new_comment_notifications"
	keyNewUserNotif    = "new_user_notifications"
	keyNewsletter      = "newsletter_enabled"
	keyCacheEnabled    = "cache_enabled"
	keyDebugMode       = "debug_mode"
)

// Defaults returns the settings a fresh installation starts with. Any key
// missing from storage reads as its default.
func Defaults() Settings {
	return Settings{
		SiteTitle:       "Modern Blog",
		SiteDescription: "Thoughts, stories and ideas",
		SiteURL:         "http://localhost:8080",
		AdminEmail:      "admin@example.com",

		PostsPerPage: 10,
		ShowAuthor:   true,
		ShowDate:     true,
		DarkMode:     false,

		NewCommentNotifications: true,
		NewUserNotifications:    true,

		NewsletterEnabled: false,
		CacheEnabled:      true,
		DebugMode:         false,
	}
}

// # Key-Value Mapping

// fromRows builds a Settings snapshot from storage rows, falling back to
// defaults for missing or unparseable values.
func fromRows(rows map[string]string) Settings {
	s := Defaults()

	str := func(key string, target *string) {
		if value, ok := rows[key]; ok {
			*target = value
		}
	}
	boolean := func(key string, target *bool) {
		if value, ok := rows[key]; ok {
			if parsed, err := strconv.ParseBool(value); err == nil {
				*target = parsed
			}
		}
	}

	str(keySiteTitle, &s.SiteTitle)
	str(keySiteDescription, &s.SiteDescription)
	str(keySiteURL, &s.SiteURL)
	str(keyAdminEmail, &s.AdminEmail)

	if value, ok := rows[keyPostsPerPage]; ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			s.PostsPerPage = parsed
		}
	}

	boolean(keyShowAuthor, &s.ShowAuthor)
	boolean(keyShowDate, &s.ShowDate)
	boolean(keyDarkMode, &s.DarkMode)
	boolean(keyNewCommentNotif, &s.NewCommentNotifications)
	boolean(keyNewUserNotif, &s.NewUserNotifications)
	boolean(keyNewsletter, &s.NewsletterEnabled)
	boolean(keyCacheEnabled, &s.CacheEnabled)
	boolean(keyDebugMode, &s.DebugMode)

	return s
}

// toRows flattens a Settings snapshot into storage rows.
func (s Settings) toRows() map[string]string {
	return map[string]string{
		keySiteTitle:       s.SiteTitle,
		keySiteDescription: s.SiteDescription,
		keySiteURL:         s.SiteURL,
		keyAdminEmail:      s.AdminEmail,

		keyPostsPerPage: strconv.Itoa(s.PostsPerPage),
		keyShowAuthor:   strconv.FormatBool(s.ShowAuthor),
		keyShowDate:     strconv.FormatBool(s.ShowDate),
		keyDarkMode:     strconv.FormatBool(s.DarkMode),

		keyNewCommentNotif: strconv.FormatBool(s.NewCommentNotifications),
		keyNewUserNotif:    strconv.FormatBool(s.NewUserNotifications),

		keyNewsletter:   strconv.FormatBool(s.NewsletterEnabled),
		keyCacheEnabled: strconv.FormatBool(s.CacheEnabled),
		keyDebugMode:    strconv.FormatBool(s.DebugMode),
	}
}

// PublicView is the subset of settings safe for anonymous readers (the
// rendering hints, not the admin contact details).
type PublicView struct {
	SiteTitle         string `json:"site_title"`
	SiteDescription   string `json:"site_description"`
	ShowAuthor        bool   `json:"show_author"`
	ShowDate          bool   `json:"show_date"`
	DarkMode          bool   `json:"dark_mode"`
	NewsletterEnabled bool   `json:"newsletter_enabled"`
}

// Public projects the snapshot onto its anonymous-reader subset.
func (s Settings) Public() PublicView {
	return PublicView{
		SiteTitle:         s.SiteTitle,
		SiteDescription:   s.SiteDescription,
		ShowAuthor:        s.ShowAuthor,
		ShowDate:          s.ShowDate,
		DarkMode:          s.DarkMode,
		NewsletterEnabled: s.NewsletterEnabled,
	}
}
