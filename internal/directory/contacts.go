// Package directory holds the mock contact list that seeds the DM directory.
// The list is plain data: services receive it by injection, so tests can swap
// in their own contacts and no process-wide singleton exists.
package directory

// Contact is a seeded directory identity with display metadata. Only id and
// username are persisted; the rest decorates profiles at response time.
type Contact struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Title       string `json:"title"`
	AvatarURL   string `json:"avatar_url"`
}

// BotUsername is the designated contact used to open the welcome thread for
// first-time users.
const BotUsername = "dm-bot"

// DefaultContacts is the stock directory. IDs are fixed so repeated seeding
// across deployments stays idempotent.
func DefaultContacts() []Contact {
	return []Contact{
		{
			ID:          "11111111-1111-4111-8111-111111111111",
			Username:    "launch-labs",
			DisplayName: "Launch Labs",
			Title:       "Product & Growth",
			AvatarURL:   "https://api.dicebear.com/7.x/notionists/svg?seed=launch-labs",
		},
		{
			ID:          "22222222-2222-4222-8222-222222222222",
			Username:    "growth-mate",
			DisplayName: "Growth Mate",
			Title:       "Lifecycle",
			AvatarURL:   "https://api.dicebear.com/7.x/notionists/svg?seed=growth-mate",
		},
		{
			ID:          "33333333-3333-4333-8333-333333333333",
			Username:    BotUsername,
			DisplayName: "Direct Message Bot",
			Title:       "Automation",
			AvatarURL:   "https://api.dicebear.com/7.x/bottts/svg?seed=dm-bot",
		},
	}
}

// ByUsername indexes contacts for profile decoration lookups.
func ByUsername(contacts []Contact) map[string]Contact {
	m := make(map[string]Contact, len(contacts))
	for _, c := range contacts {
		m[c.Username] = c
	}
	return m
}
