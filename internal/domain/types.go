package domain

// RoomStatus represents the lifecycle state of a game room.
type RoomStatus string

const (
	StatusActive   RoomStatus = "active"
	StatusFinished RoomStatus = "finished"
)

// Result is the outcome recorded in a player's history.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// User is a registered account.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"createdAt"`
}

// DirectMessage is one persisted chat message between two users.
type DirectMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// FriendStatus mirrors the two-sided friendship relation: accepting a
// request flips both sides' rows to StatusFriends in one transaction.
type FriendStatus string

const (
	StatusPendingSent     FriendStatus = "pending_sent"
	StatusPendingReceived FriendStatus = "pending_received"
	StatusFriends         FriendStatus = "friends"
)

// Friend is one direction of a friendship relation as seen by a user.
type Friend struct {
	ID       string       `json:"id"`
	Username string       `json:"username"`
	Status   FriendStatus `json:"status"`
	Since    string       `json:"since"`
}

// HistoryRecord is one entry in a user's game history.
type HistoryRecord struct {
	ID         string `json:"id"`
	GameName   string `json:"gameName"`
	Difficulty string `json:"difficulty"`
	Result     Result `json:"result"`
	ImageSrc   string `json:"imageSrc"`
	Date       string `json:"date"`
}

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrNotYourTurn     Error = "not your turn"
	ErrNotInRoom       Error = "you are not a player in this room"
	ErrInvalidMove     Error = "invalid move"
	ErrCellOccupied    Error = "cell is already occupied"
	ErrRoomFinished    Error = "game has already finished"
	ErrRoomActive      Error = "game is still in progress"
	ErrAlreadyInRoom   Error = "already in a game"
	ErrSelfMatch       Error = "cannot play against yourself"
	ErrTargetOffline   Error = "target player is not online"
	ErrUnknownGameType Error = "unknown game type"
	ErrRematchPending  Error = "rematch already requested"

	ErrUserNotFound       Error = "user not found"
	ErrUsernameTaken      Error = "username already taken"
	ErrInvalidCredentials Error = "invalid username or password"
	ErrRelationExists     Error = "friend request or friendship already exists"
	ErrRelationNotFound   Error = "no such friend request or friendship"
)
