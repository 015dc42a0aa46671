package internal

import (
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

// tui model struct for all the components and modes
type TUIModel struct {
	textInput         textinput.Model
	transcript        []ChatMessage
	roster            Roster
	presence          *PresenceMachine
	serverJoinURL     string
	websocketConn     *websocket.Conn
	writeMutex        sync.Mutex
	isConnected       bool
	connectionError   error
	mode              appMode
	pendingAttachment string
	uploading         bool
}

type appMode int

const (
	modeNamePrompt appMode = iota
	modeChat
)

func NewTUIModel(serverJoinURL, name string) *TUIModel {
	input := textinput.New()
	input.Placeholder = "Enter display name…"
	input.CharLimit = 0
	input.Prompt = "name> "
	input.Focus()

	if name == "" {
		name = defaultName()
	}
	input.SetValue(name)

	return &TUIModel{
		textInput:     input,
		transcript:    make([]ChatMessage, 0, 64),
		roster:        make(Roster),
		presence:      NewPresenceMachine(),
		serverJoinURL: serverJoinURL,
		mode:          modeNamePrompt,
	}
}

// prefill for the name prompt; joining still requires pressing enter.
func defaultName() string {
	if name := os.Getenv("HUDDLE_NAME"); name != "" {
		return name
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return ""
}

func (model *TUIModel) Init() tea.Cmd {
	// the socket is dialed up front, like the browser client does on page
	// load; the join event only goes out once a name is entered.
	return model.connectCmd()
}
