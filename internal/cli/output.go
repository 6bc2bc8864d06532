package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AuthResult:
		o.printAuthResult(v)
	case GameStatus:
		o.printGameStatus(v)
	case Controls:
		o.printControls(v)
	case AccountList:
		o.printAccountList(v)
	case Account:
		fmt.Printf("Account: %s\n", v.ID)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	ID string `json:"id"`
}

// AuthResult is the admin login response
type AuthResult struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// GameStatus response type
type GameStatus struct {
	Info   map[string]string `json:"info"`
	Locked bool              `json:"locked"`
	Closed bool              `json:"closed"`
	Online []Account         `json:"online"`
	Banned []Account         `json:"banned"`
}

// Controls response type
type Controls struct {
	Buttons    map[string]string `json:"buttons"`
	Axes       map[string]string `json:"axes"`
	Directions map[string]string `json:"directions"`
}

// AccountList response type
type AccountList struct {
	Accounts []Account `json:"accounts"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAuthResult(r AuthResult) {
	fmt.Println("Logged in")
	fmt.Printf("  Token:   %s\n", r.SessionToken)
	fmt.Printf("  Expires: %s\n", r.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printGameStatus(s GameStatus) {
	fmt.Printf("Game: %s\n", s.Info["Game_Name"])
	if version, ok := s.Info["Version"]; ok {
		fmt.Printf("  Version: %s\n", version)
	}
	for _, key := range sortedKeys(s.Info) {
		if key == "Game_Name" || key == "Version" {
			continue
		}
		fmt.Printf("  %s: %s\n", key, s.Info[key])
	}
	fmt.Printf("  Locked: %v\n", s.Locked)
	fmt.Printf("  Closed: %v\n", s.Closed)
	fmt.Printf("  Online: %s\n", accountNames(s.Online))
	fmt.Printf("  Banned: %s\n", accountNames(s.Banned))
}

func (o *Output) printControls(c Controls) {
	printKeyTable := func(label string, m map[string]string) {
		fmt.Printf("%s:\n", label)
		if len(m) == 0 {
			fmt.Println("  (none)")
			return
		}
		for _, key := range sortedKeys(m) {
			fmt.Printf("  %s: %s\n", key, m[key])
		}
	}
	printKeyTable("Buttons", c.Buttons)
	printKeyTable("Axes", c.Axes)
	printKeyTable("Directions", c.Directions)
}

func (o *Output) printAccountList(l AccountList) {
	if len(l.Accounts) == 0 {
		fmt.Println("No accounts")
		return
	}
	for _, a := range l.Accounts {
		fmt.Println(a.ID)
	}
}

func accountNames(accounts []Account) string {
	if len(accounts) == 0 {
		return "(none)"
	}
	names := make([]string, len(accounts))
	for i, a := range accounts {
		names[i] = a.ID
	}
	return strings.Join(names, ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
