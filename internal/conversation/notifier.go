package conversation

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...interface{})

// CLINotifier writes notices through printFn with terminal styling.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewCLINotifier creates a notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a normal notice.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Debug("notify: %s", message)
	n.printFn("%s", noticeStyle.Render(message))
	return nil
}

// NotifyUrgent prints an error notice in bold red.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s", urgentStyle.Render(message))
	return nil
}
