package internal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// pre styled colors, all from lipgloss
var (
	appTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).Padding(0, 1)
	subtitleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).MarginTop(1)
	chatHeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("109")).MarginTop(1)
	connectedStyle     = statusStyle.Copy().Foreground(lipgloss.Color("42")).Bold(true)
	connectingStyle    = statusStyle.Copy().Foreground(lipgloss.Color("178")).Italic(true)
	errorStyle         = statusStyle.Copy().Foreground(lipgloss.Color("196")).Bold(true)
	messageBodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("253"))
	messageBoxStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(1, 2).MarginTop(1)
	rosterBoxStyle     = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 2).MarginTop(1).MarginLeft(2)
	inputBoxStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1).MarginTop(1)
	timestampStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	usernameStyle      = lipgloss.NewStyle().Bold(true)
	activeUserStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	inactiveUserStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	attachmentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Underline(true)
	systemMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	menuHintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)
	userColorPalette   = []lipgloss.Color{
		lipgloss.Color("45"),
		lipgloss.Color("81"),
		lipgloss.Color("141"),
		lipgloss.Color("98"),
		lipgloss.Color("63"),
		lipgloss.Color("135"),
		lipgloss.Color("32"),
	}
)

func (model *TUIModel) View() string {
	if model.mode == modeNamePrompt {
		return model.renderNamePrompt()
	}
	return model.renderChatView()
}

func (model *TUIModel) renderNamePrompt() string {
	title := appTitleStyle.Render("Huddle")
	subtitle := subtitleStyle.Render("Pick a display name to join the room")

	viewSections := []string{
		lipgloss.JoinVertical(lipgloss.Left, title, subtitle),
		inputBoxStyle.Render(model.textInput.View()),
	}
	viewSections = append(viewSections, model.renderConnectionStatus())
	viewSections = append(viewSections, menuHintStyle.Render("Enter join • Esc quit"))

	return lipgloss.JoinVertical(lipgloss.Left, viewSections...)
}

func (model *TUIModel) renderChatView() string {
	header := chatHeaderStyle.Render(fmt.Sprintf("Huddle · %s", model.presence.Name()))

	transcript := model.renderTranscript()
	roster := model.renderRoster()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		messageBoxStyle.Render(transcript),
		rosterBoxStyle.Render(roster),
	)

	viewSections := []string{header, body, inputBoxStyle.Render(model.textInput.View())}
	viewSections = append(viewSections, model.renderConnectionStatus())

	hint := "Enter send • /attach <path> • /detach • /quit"
	if model.pendingAttachment != "" {
		hint = fmt.Sprintf("Attachment queued: %s • %s", model.pendingAttachment, hint)
	}
	if model.uploading {
		hint = "Uploading attachment… • " + hint
	}
	viewSections = append(viewSections, menuHintStyle.Render(hint))

	return lipgloss.JoinVertical(lipgloss.Left, viewSections...)
}

func (model *TUIModel) renderTranscript() string {
	if len(model.transcript) == 0 {
		return systemMessageStyle.Render("No messages yet. Say hi!")
	}

	const maxVisible = 18
	messages := model.transcript
	if len(messages) > maxVisible {
		messages = messages[len(messages)-maxVisible:]
	}

	lines := make([]string, 0, len(messages)*2)
	for _, chat := range messages {
		lines = append(lines, model.renderMessage(chat)...)
	}
	return strings.Join(lines, "\n")
}

func (model *TUIModel) renderMessage(chat ChatMessage) []string {
	stamp := timestampStyle.Render(chat.SentAt.Local().Format("15:04"))
	if chat.SentAt.IsZero() {
		stamp = timestampStyle.Render(time.Now().Format("15:04"))
	}
	if chat.Author == "system" {
		return []string{fmt.Sprintf("%s %s", stamp, systemMessageStyle.Render(chat.Body))}
	}

	author := usernameStyle.Copy().Foreground(colorForUser(chat.Author)).Render(chat.Author)
	lines := []string{fmt.Sprintf("%s %s %s", stamp, author, messageBodyStyle.Render(chat.Body))}
	if chat.Attachment != nil && *chat.Attachment != "" {
		link := attachmentStyle.Render(attachmentURL(model.serverJoinURL, *chat.Attachment))
		lines = append(lines, fmt.Sprintf("     %s", link))
	}
	return lines
}

func (model *TUIModel) renderRoster() string {
	if len(model.roster) == 0 {
		return systemMessageStyle.Render("Nobody here yet.")
	}

	// map order is random; sort by name so the panel does not jitter.
	ids := make([]string, 0, len(model.roster))
	for id := range model.roster {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		left, right := model.roster[ids[i]], model.roster[ids[j]]
		if left.Name != right.Name {
			return left.Name < right.Name
		}
		return ids[i] < ids[j]
	})

	lines := make([]string, 0, len(ids)+1)
	lines = append(lines, usernameStyle.Render(fmt.Sprintf("In the room (%d)", len(ids))))
	for _, id := range ids {
		record := model.roster[id]
		if record.Status == StatusActive {
			lines = append(lines, activeUserStyle.Render("● ")+record.Name)
		} else {
			lines = append(lines, inactiveUserStyle.Render("○ ")+record.Name+inactiveUserStyle.Render(" (away)"))
		}
	}
	return strings.Join(lines, "\n")
}

func (model *TUIModel) renderConnectionStatus() string {
	switch {
	case model.presence.Phase() == PhaseDisconnected:
		return errorStyle.Render("✗ Disconnected")
	case model.isConnected:
		return connectedStyle.Render("✓ Connected")
	case model.connectionError != nil:
		return errorStyle.Render(fmt.Sprintf("✗ %v", model.connectionError))
	default:
		return connectingStyle.Render("… Connecting")
	}
}

func colorForUser(name string) lipgloss.Color {
	if len(userColorPalette) == 0 {
		return lipgloss.Color("255")
	}
	var sum int
	for _, r := range name {
		sum += int(r)
	}
	return userColorPalette[sum%len(userColorPalette)]
}
