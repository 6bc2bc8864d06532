package protocol

import (
	"fmt"

	"github.com/netpad-project/netpad/internal/model"
)

// ControlKind discriminates ControlMessage variants. The numeric values are
// wire tags and must not be reordered.
type ControlKind uint8

const (
	ControlMsg ControlKind = iota // plain text handed to the game
	ControlPressed
	ControlReleased
	ControlAxis
	ControlDir
	ControlExit // controller requests disconnect
	ControlErr  // decode-failure sentinel
	ControlEnd  // loop termination sentinel, never transmitted
)

// ControlMessage is one input event sent from a controller to a game during
// the long connection. Which payload fields are meaningful depends on Kind.
type ControlMessage struct {
	Kind  ControlKind
	Key   uint8
	Value float64 // ControlAxis
	X, Y  float64 // ControlDir
	Text  string  // ControlMsg
}

// ControlErrMessage is the sentinel every failed ControlMessage decode
// degrades to.
func ControlErrMessage() ControlMessage {
	return ControlMessage{Kind: ControlErr}
}

func (m ControlMessage) String() string {
	switch m.Kind {
	case ControlMsg:
		return fmt.Sprintf("Msg(%q)", m.Text)
	case ControlPressed:
		return fmt.Sprintf("Pressed(%d)", m.Key)
	case ControlReleased:
		return fmt.Sprintf("Released(%d)", m.Key)
	case ControlAxis:
		return fmt.Sprintf("Axis(%d, %g)", m.Key, m.Value)
	case ControlDir:
		return fmt.Sprintf("Dir(%d, (%g, %g))", m.Key, m.X, m.Y)
	case ControlExit:
		return "Exit"
	case ControlErr:
		return "Err"
	case ControlEnd:
		return "End"
	default:
		return fmt.Sprintf("Control(%d)", m.Kind)
	}
}

// GameKind discriminates GameMessage variants.
type GameKind uint8

const (
	GameEventTrigger GameKind = iota
	GameMsg
	GameLetExit
	GameErr
	GameEnd
)

// GameMessage is one message sent from a game to a controller during the
// long connection.
type GameMessage struct {
	Kind   GameKind
	Key    uint8      // GameEventTrigger
	Text   string     // GameMsg
	Reason ExitReason // GameLetExit
}

// GameErrMessage is the sentinel every failed GameMessage decode degrades to.
func GameErrMessage() GameMessage {
	return GameMessage{Kind: GameErr}
}

func (m GameMessage) String() string {
	switch m.Kind {
	case GameEventTrigger:
		return fmt.Sprintf("EventTrigger(%d)", m.Key)
	case GameMsg:
		return fmt.Sprintf("Msg(%q)", m.Text)
	case GameLetExit:
		return fmt.Sprintf("LetExit(%s)", m.Reason)
	case GameErr:
		return "Err"
	case GameEnd:
		return "End"
	default:
		return fmt.Sprintf("Game(%d)", m.Kind)
	}
}

// ExitReason explains a LetExit request.
type ExitReason uint8

const (
	ReasonExit ExitReason = iota
	ReasonGameOver
	ReasonServerClosed
	ReasonYouAreKicked
	ReasonYouAreBanned
	ReasonErr
)

func (r ExitReason) String() string {
	switch r {
	case ReasonExit:
		return "Exit"
	case ReasonGameOver:
		return "GameOver"
	case ReasonServerClosed:
		return "ServerClosed"
	case ReasonYouAreKicked:
		return "YouAreKicked"
	case ReasonYouAreBanned:
		return "YouAreBanned"
	case ReasonErr:
		return "Err"
	default:
		return fmt.Sprintf("ExitReason(%d)", uint8(r))
	}
}

// ConnectionKind discriminates pre-session client requests.
type ConnectionKind uint8

const (
	ConnJoin ConnectionKind = iota
	ConnRequestGameInfos
	ConnRequestLayoutConfigure
	ConnRequestSkinPackage
	ConnReady
	ConnErr
)

// ConnectionMessage is a pre-session request from controller to game.
type ConnectionMessage struct {
	Kind   ConnectionKind
	Player model.Player // ConnJoin
}

// ConnectionErrMessage is the sentinel every failed ConnectionMessage
// decode degrades to.
func ConnectionErrMessage() ConnectionMessage {
	return ConnectionMessage{Kind: ConnErr}
}

func (m ConnectionMessage) String() string {
	switch m.Kind {
	case ConnJoin:
		return fmt.Sprintf("Join(%s)", m.Player)
	case ConnRequestGameInfos:
		return "RequestGameInfos"
	case ConnRequestLayoutConfigure:
		return "RequestLayoutConfigure"
	case ConnRequestSkinPackage:
		return "RequestSkinPackage"
	case ConnReady:
		return "Ready"
	case ConnErr:
		return "Err"
	default:
		return fmt.Sprintf("Connection(%d)", m.Kind)
	}
}

// ResponseKind discriminates pre-session server responses.
type ResponseKind uint8

const (
	RespGameInfos ResponseKind = iota
	RespDeny
	RespFail
	RespOk
	RespWelcome
	RespErr
)

// ConnectionResponse is a pre-session response from game to controller.
type ConnectionResponse struct {
	Kind    ResponseKind
	Infos   model.GameInfo // RespGameInfos
	Refusal JoinRefusal    // RespDeny, RespFail
}

// ResponseErrMessage is the sentinel every failed ConnectionResponse decode
// degrades to.
func ResponseErrMessage() ConnectionResponse {
	return ConnectionResponse{Kind: RespErr}
}

func (m ConnectionResponse) String() string {
	switch m.Kind {
	case RespGameInfos:
		return fmt.Sprintf("GameInfos(%d entries)", len(m.Infos))
	case RespDeny:
		return fmt.Sprintf("Deny(%s)", m.Refusal)
	case RespFail:
		return fmt.Sprintf("Fail(%s)", m.Refusal)
	case RespOk:
		return "Ok"
	case RespWelcome:
		return "Welcome"
	case RespErr:
		return "Err"
	default:
		return fmt.Sprintf("Response(%d)", m.Kind)
	}
}

// JoinRefusal is the closed set of reasons a join attempt is rejected.
type JoinRefusal uint8

const (
	RefusalContainIdenticalPlayer JoinRefusal = iota
	RefusalPlayerBanned
	RefusalGameLocked
	RefusalUnknown
)

func (r JoinRefusal) String() string {
	switch r {
	case RefusalContainIdenticalPlayer:
		return "ContainIdenticalPlayer"
	case RefusalPlayerBanned:
		return "PlayerBanned"
	case RefusalGameLocked:
		return "GameLocked"
	case RefusalUnknown:
		return "UnknownError"
	default:
		return fmt.Sprintf("JoinRefusal(%d)", uint8(r))
	}
}

// JoinError wraps a JoinRefusal as an error for the game runtime's TryJoin.
type JoinError struct {
	Refusal JoinRefusal
}

func (e *JoinError) Error() string {
	return "join refused: " + e.Refusal.String()
}
