package persist

// Prefix namespaces every key owned by the app.
const Prefix = "@chatapp_"

const (
	KeyUser     = Prefix + "user"
	KeyChats    = Prefix + "chats"
	KeyMessages = Prefix + "messages"
	KeyContacts = Prefix + "contacts"
	KeyCalls    = Prefix + "calls"
	KeyStatuses = Prefix + "statuses"
)

// MessagesKey returns the key holding one chat's message list.
func MessagesKey(chatID string) string {
	return KeyMessages + "_" + chatID
}
