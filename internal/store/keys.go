package store

const (
	// KeyPrefix namespaces every key written by the service
	KeyPrefix = "movieflip:"

	// KeyProfile holds the versioned profile document
	KeyProfile = KeyPrefix + "profile:v1"
	// KeyToken holds the catalog bearer credential
	KeyToken = KeyPrefix + "token"
	// KeyLanguage holds the catalog locale (ex: en-US)
	KeyLanguage = KeyPrefix + "language"
	// KeyProviders holds the selected watch provider ids
	KeyProviders = KeyPrefix + "providers"
	// KeyBookmarkSort holds the bookmark list ordering
	KeyBookmarkSort = KeyPrefix + "bookmark_sort"
	// KeyAudience holds the audience filter
	KeyAudience = KeyPrefix + "audience"
)
