// Package console is the sequential text menu that drives a session.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tracker/internal/models"
	"tracker/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

var errBack = errors.New("back")

// Console reads choices line by line and prints results.
type Console struct {
	sess   *session.Session
	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger
}

// New builds a console over the given session and streams.
func New(sess *session.Session, in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		sess:   sess,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
	}
}

// Run loops over sign-in and the main menu until the user quits or input ends.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := c.login(ctx); err != nil {
			return ignoreEOF(err)
		}
		quit, err := c.mainMenu(ctx)
		if err != nil {
			return ignoreEOF(err)
		}
		if quit {
			c.println("Goodbye!")
			return nil
		}
		c.sess.Logout()
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Console) login(ctx context.Context) error {
	for {
		c.title("LOGIN")
		id, err := c.askRaw("Login or e-mail: ")
		if err != nil {
			return err
		}
		secret, err := c.askRaw("Password: ")
		if err != nil {
			return err
		}
		u, err := c.sess.Login(ctx, id, secret)
		if err != nil {
			c.fail(err)
			continue
		}
		c.ok(fmt.Sprintf("Welcome, %s", u.Name))
		return nil
	}
}

// mainMenu returns true when the user asked to quit.
func (c *Console) mainMenu(ctx context.Context) (bool, error) {
	for {
		c.title("MAIN MENU")
		c.println("1. Create project")
		c.println("2. List projects")
		c.println("3. Open project")
		c.println("4. Export projects to CSV")
		c.println("5. Sign out")
		c.println("6. Quit")
		choice, err := c.askInt("Choose: ")
		if err != nil {
			if errors.Is(err, models.ErrInvalidInput) {
				c.fail(err)
				continue
			}
			return false, err
		}

		switch choice {
		case 1:
			err = c.createProject(ctx)
		case 2:
			err = c.listProjects(ctx)
		case 3:
			err = c.openProject(ctx)
		case 4:
			err = c.exportProjects(ctx)
		case 5:
			return false, nil
		case 6:
			return true, nil
		default:
			c.fail(fmt.Errorf("invalid option: %w", models.ErrInvalidInput))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, err
			}
			c.fail(err)
		}
	}
}

func (c *Console) ask(prompt string) (string, error) {
	line, err := c.askRaw(prompt)
	return strings.TrimSpace(line), err
}

// askRaw returns the line exactly as typed. Credentials and reasons use it.
func (c *Console) askRaw(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.in.Text(), nil
}

func (c *Console) askInt(prompt string) (int, error) {
	raw, err := c.ask(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", raw, models.ErrInvalidInput)
	}
	return n, nil
}

// pick asks for an index into a list of n entries. -1 means back.
func (c *Console) pick(prompt string, n int) (int, error) {
	idx, err := c.askInt(prompt)
	if err != nil {
		return 0, err
	}
	if idx == -1 {
		return 0, errBack
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("choice %d out of range: %w", idx, models.ErrInvalidInput)
	}
	return idx, nil
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) title(s string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, titleStyle.Render("===== "+s+" ====="))
}

func (c *Console) ok(s string) {
	fmt.Fprintln(c.out, okStyle.Render(s))
}

func (c *Console) muted(s string) {
	fmt.Fprintln(c.out, mutedStyle.Render(s))
}

// fail prints a user-facing message for err.
func (c *Console) fail(err error) {
	if errors.Is(err, errBack) {
		return
	}
	c.logger.Debug("operation failed", slog.String("error", err.Error()))
	fmt.Fprintln(c.out, errStyle.Render(describe(err)))
}

func describe(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return "Invalid credentials."
	case errors.Is(err, models.ErrForbidden):
		return "You do not have permission to do that."
	case errors.Is(err, models.ErrRejectedCapacity):
		return fmt.Sprintf("User already participates in %d projects; not added.", models.MaxProjectsPerUser)
	case errors.Is(err, models.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, models.ErrInvalidInput):
		return "Invalid input: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
