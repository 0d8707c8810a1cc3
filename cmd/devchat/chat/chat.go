package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/devchat/cmd/devchat/cmdutil"
	"github.com/papercomputeco/devchat/cmd/devchat/sqlitepath"
	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/codeblock"
	"github.com/papercomputeco/devchat/pkg/completion"
	"github.com/papercomputeco/devchat/pkg/imagegen"
	"github.com/papercomputeco/devchat/pkg/logger"
	"github.com/papercomputeco/devchat/pkg/merkle"
	"github.com/papercomputeco/devchat/pkg/render"
	"github.com/papercomputeco/devchat/pkg/session"
	"github.com/papercomputeco/devchat/pkg/transcript"
	"github.com/papercomputeco/devchat/pkg/tui"
)

const chatLongDesc string = `Chat with the code assistant in the terminal.

On a terminal this opens a full-screen chat: enter sends, tab switches
between chat and image mode, ctrl+y copies the newest code block and
ctrl+s saves it. When input is piped, each line is one message and these
commands are available:

  /image  switch to image mode
  /chat   switch to chat mode
  /copy   copy the newest code block
  /save   save the newest code block
  /quit   leave

Examples:
  devchat chat
  echo "Write a Python calculator" | devchat chat
  devchat chat --record`

const chatShortDesc string = "Chat in the terminal"

type chatCommander struct {
	record     bool
	sqlitePath string
	saveDir    string
	plain      bool
	strict     bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.record, "record", false, "Record the conversation in the local transcript database")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to local SQLite database (implies --record)")
	cmd.Flags().StringVar(&cmder.saveDir, "save-dir", ".", "Directory code blocks are saved to")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Use line mode even on a terminal")
	cmd.Flags().BoolVar(&cmder.strict, "strict", false, "Fail at startup when no API key is configured")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	interactive := !c.plain && isTerminal(os.Stdin) && isTerminal(os.Stdout)

	// Logs would corrupt the full-screen view, so they go to a file there.
	var logOut io.Writer = cmd.ErrOrStderr()
	if interactive {
		logFile, err := logger.OpenFile(logPath(cmdutil.ConfigPath(cmd)))
		if err != nil {
			return err
		}
		defer logFile.Close()
		logOut = logFile
	}
	log := cmdutil.NewLogger(cfg, logOut)
	defer log.Sync()

	if err := cmdutil.CheckCredential(cfg, c.strict, log); err != nil {
		return err
	}

	opts := session.Options{
		ImageDelay: cfg.ImageDelay(),
		Greeting:   cfg.Chat.Greeting,
		Logger:     log,
	}

	if c.record || c.sqlitePath != "" {
		dbPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
		if err != nil {
			return fmt.Errorf("could not resolve transcript database: %w", err)
		}
		storer, err := merkle.NewSQLiteStorer(dbPath)
		if err != nil {
			return fmt.Errorf("could not open transcript database %s: %w", dbPath, err)
		}
		defer storer.Close()
		opts.Recorder = transcript.NewRecorder(storer, cfg.OpenRouter.Model, log)
		log.Debug("recording transcript", zap.String("path", dbPath))
	}

	client := completion.New(cfg.Completion(), log)
	images := imagegen.New()

	if interactive {
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || width <= 0 {
			width = 80
		}
		renderer, err := render.New(render.Options{Width: width - 4})
		if err != nil {
			return err
		}

		notifier := tui.NewNotifier()
		opts.OnChange = notifier.Notify
		sess := session.New(client, images, opts)

		return tui.Run(tui.New(ctx, sess, notifier, tui.Options{
			Renderer: renderer,
			SaveDir:  c.saveDir,
		}))
	}

	sess := session.New(client, images, opts)
	lines := &lineChat{
		session: sess,
		copier:  codeblock.NewCopier(),
		saveDir: c.saveDir,
		out:     cmd.OutOrStdout(),
	}
	return lines.run(ctx, cmd.InOrStdin())
}

// lineChat is the non-interactive front-end: one message per input line,
// each new reply printed as it arrives. Replies are printed as their raw
// markdown so piped output can be consumed as-is.
type lineChat struct {
	session *session.Session
	copier  *codeblock.Copier
	saveDir string
	out     io.Writer
	printed int
}

func (l *lineChat) run(ctx context.Context, in io.Reader) error {
	l.flush()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/image":
			l.session.SetMode(chat.ModeImage)
			fmt.Fprintln(l.out, "(image mode)")
			continue
		case "/chat":
			l.session.SetMode(chat.ModeChat)
			fmt.Fprintln(l.out, "(chat mode)")
			continue
		case "/copy":
			l.copy()
			continue
		case "/save":
			l.save()
			continue
		}

		l.session.SetInput(line)
		if l.session.SubmitInput(ctx) == session.Answered {
			l.flush()
		}
	}

	return scanner.Err()
}

// flush prints log entries not yet shown.
func (l *lineChat) flush() {
	log := l.session.Messages()
	for _, msg := range log[l.printed:] {
		if msg.Role == chat.RoleUser {
			continue
		}
		fmt.Fprintln(l.out, plain(msg))
		fmt.Fprintln(l.out)
	}
	l.printed = len(log)
}

func (l *lineChat) copy() {
	block, ok := tui.LastCodeBlock(l.session.Messages())
	if !ok {
		fmt.Fprintln(l.out, "(no code block to copy)")
		return
	}
	if err := l.copier.Copy(block); err != nil {
		fmt.Fprintf(l.out, "(copy failed: %v)\n", err)
		return
	}
	fmt.Fprintln(l.out, "(copied)")
}

func (l *lineChat) save() {
	block, ok := tui.LastCodeBlock(l.session.Messages())
	if !ok {
		fmt.Fprintln(l.out, "(no code block to save)")
		return
	}
	path, err := block.Save(l.saveDir)
	if err != nil {
		fmt.Fprintf(l.out, "(save failed: %v)\n", err)
		return
	}
	fmt.Fprintf(l.out, "(saved %s)\n", path)
}

func plain(msg chat.Message) string {
	if msg.IsImage() {
		return render.Image(msg)
	}
	return msg.Content
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logPath places the log next to the config file.
func logPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "devchat.log")
}
