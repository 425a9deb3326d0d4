package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Spok95/eduhere-client/internal/app"
	"github.com/Spok95/eduhere-client/internal/auth"
	"github.com/Spok95/eduhere-client/internal/client"
	"github.com/Spok95/eduhere-client/internal/config"
	"github.com/Spok95/eduhere-client/internal/school"
	"github.com/Spok95/eduhere-client/internal/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal
	retryDelay       = time.Second

	errHelp = errors.New("help provided")
)

type commandLine struct {
	cfg  *config.Config
	log  *zap.Logger
	in   io.Reader
	out  io.Writer
	sess *session.Manager
	ref  *auth.Refresher
	auth *auth.Service
	api  *school.API
}

func newCommandLine(cfg *config.Config, store session.Store, log *zap.Logger, in io.Reader, out io.Writer) *commandLine {
	hc := &http.Client{Timeout: cfg.RequestTimeout}
	sess := session.NewManager(store, log.Named("session"))
	ref := auth.NewRefresher(cfg.BaseURL, cfg.RefreshPath, sess, hc, log.Named("auth"))
	c := client.New(cfg.BaseURL, sess, ref,
		client.WithHTTPClient(hc),
		client.WithLogger(log.Named("client")),
		client.OnSessionExpired(func(err error) {
			log.Warn("session expired, tokens cleared", zap.Error(err))
		}))
	return &commandLine{
		cfg:  cfg,
		log:  log,
		in:   in,
		out:  out,
		sess: sess,
		ref:  ref,
		auth: auth.NewService(cfg.BaseURL, sess, hc, log.Named("auth")),
		api:  school.New(c, log),
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, `Usage: eduhere <command> [flags]

Commands:
  login -username U -role R        log in (password is prompted)
  logout                           forget the stored session
  whoami                           show the stored role and token expiry
  grades [-children]               list grades
  stats [-children]                grade statistics
  schedule [-children|-teacher ID] weekly timetable
  attendance [-children|-student ID|-teacher ID] [-date YYYY-MM-DD]
  mark -student S -schedule C -date D -status present|absent|late|pending
  add-grade -student S -subject J -level L -grade G -type Test1|Test2|Test3
  export -what grades|attendance -out DIR [-children]
  students [-teacher ID]           roster (admin) or a teacher's class
  teachers                         teacher roster (admin)
  watch                            follow attendance live until interrupted`)
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	cmd, rest := args[1], args[2:]
	switch cmd {
	case "login":
		return cli.login(ctx, rest)
	case "logout":
		return cli.logout(ctx, rest)
	case "whoami":
		return cli.whoami(ctx, rest)
	case "grades":
		return cli.grades(ctx, rest)
	case "stats":
		return cli.stats(ctx, rest)
	case "schedule":
		return cli.schedule(ctx, rest)
	case "attendance":
		return cli.attendance(ctx, rest)
	case "mark":
		return cli.mark(ctx, rest)
	case "add-grade":
		return cli.addGrade(ctx, rest)
	case "export":
		return cli.export(ctx, rest)
	case "students":
		return cli.students(ctx, rest)
	case "teachers":
		return cli.teachers(ctx, rest)
	case "watch":
		return cli.watch(ctx, rest)
	case "help", "-h", "--help":
		cli.printUsage()
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

// readPassword prompts on a terminal and reads one line otherwise.
func (cli *commandLine) readPassword() (string, error) {
	if isTerminalFunc(int(syscall.Stdin)) {
		fmt.Fprint(cli.out, "Password: ")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		return string(pwd), err
	}
	line, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// bannerError carries the message a screen would show.
type bannerError struct {
	banner app.Banner
	err    error
}

func (e *bannerError) Error() string {
	if e.banner.LoginRequired {
		return e.banner.Message + " Run `eduhere login`."
	}
	return e.banner.Message
}

func (e *bannerError) Unwrap() error { return e.err }

// load fetches through an app.Loader and spends the retry budget on
// retryable failures before giving up with the banner text.
func load[T any](ctx context.Context, cli *commandLine, guard func(context.Context) error, fetch func(context.Context) (T, error)) (T, error) {
	l := app.NewLoader(fetch, cli.cfg.MaxRetries, cli.log)
	if guard != nil {
		l.WithGuard(guard)
	}
	data, err := l.Load(ctx)
	for err != nil && !errors.Is(err, app.ErrRetryBudget) && app.BannerFor(err).CanRetry {
		cli.log.Info("retrying", zap.String("banner", l.Banner().Message), zap.Int("attempt", l.Retries()+1))
		select {
		case <-ctx.Done():
			return data, ctx.Err()
		case <-time.After(retryDelay):
		}
		data, err = l.Retry(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return data, ctx.Err()
		}
		return data, &bannerError{banner: l.Banner(), err: err}
	}
	return data, nil
}
