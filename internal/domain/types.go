package domain

type SessionID string
type UserID string
type EventID string

// Intent is the classified purpose of an inbound message.
type Intent string

const (
	IntentCreateGroup    Intent = "CREATE_GROUP"
	IntentAddParticipant Intent = "ADD_PARTICIPANT"
	IntentConfigureTanda Intent = "CONFIGURE_TANDA"
	IntentCheckStatus    Intent = "CHECK_STATUS"
	IntentStartTanda     Intent = "START_TANDA"
	IntentPayQuota       Intent = "PAY_QUOTA"
	IntentUploadProof    Intent = "UPLOAD_PROOF"
	IntentVerifyPhone    Intent = "VERIFY_PHONE"
	IntentGeneralHelp    Intent = "GENERAL_HELP"
	IntentUnknown        Intent = "UNKNOWN"
)

// AuthorUser is the author recorded on events produced by the end user.
// Handler events carry the handler's own name.
const AuthorUser = "user"

// AuthorOrchestrator marks replies produced by the router itself,
// when no specialized handler reported an author.
const AuthorOrchestrator = "orchestrator"
