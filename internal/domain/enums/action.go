package enums

// Action tags action_logs rows. The set is open-ended; these are the
// tags the relay itself writes.
type Action string

const (
	ActionJoin                 Action = "join"
	ActionLeft                 Action = "left"
	ActionBan                  Action = "ban"
	ActionUnban                Action = "unban"
	ActionMute                 Action = "mute"
	ActionUnmute               Action = "unmute"
	ActionKick                 Action = "kick"
	ActionGroupJoin            Action = "group_join"
	ActionGroupLeft            Action = "group_left"
	ActionChannelJoin          Action = "channel_join"
	ActionChannelLeft          Action = "channel_left"
	ActionChatMemberUpdate     Action = "chat_member_update"
	ActionChatMemberUpdateLeft Action = "chat_member_update_left"
	ActionMyChatMember         Action = "my_chat_member"
	ActionAdminSync            Action = "admin_sync"
	ActionChatObserved         Action = "chat_observed"
	ActionUserObserved         Action = "user_observed"
	ActionWebhookConnected     Action = "webhook_connected"
	ActionWebhookDisconnected  Action = "webhook_disconnected"
	ActionFlag                 Action = "flag"
	ActionAutoMute             Action = "auto_mute"
)
