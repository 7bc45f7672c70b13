package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/term"

	"aula-lms/internal/domain"
	"aula-lms/internal/querycache"
	"aula-lms/internal/redirect"
	"aula-lms/internal/routes"
	"aula-lms/internal/service"
	"aula-lms/internal/session"
	"aula-lms/internal/upload"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp         = errors.New("help provided")
	errNotSignedIn  = errors.New("not signed in; run: aula login -email EMAIL")
	errUnauthorized = errors.New("unauthorized for this account's role")
)

// watchFunc runs the long-lived watch mode until ctx ends.
type watchFunc func(ctx context.Context) error

type commandLine struct {
	svc      *service.Services
	session  *session.Manager
	cache    *querycache.Client
	uploader *upload.Uploader
	watch    watchFunc
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                     - sign in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                                 - sign out and forget cached data")
	fmt.Fprintln(cli.out, "  whoami                                 - show the signed-in user")
	fmt.Fprintln(cli.out, "  profile [-first NAME] [-last NAME] [-phone E164]")
	fmt.Fprintln(cli.out, "                                         - update your profile")
	fmt.Fprintln(cli.out, "  courses [-search Q] [-level L] [-page N] [-limit N]")
	fmt.Fprintln(cli.out, "                                         - list the course catalog")
	fmt.Fprintln(cli.out, "  enrollments                            - list your enrollments and progress")
	fmt.Fprintln(cli.out, "  notifications [-unread] [-read-all]    - list or clear notifications")
	fmt.Fprintln(cli.out, "  upload -file PATH [-kind video|pdf] [-type MIME]")
	fmt.Fprintln(cli.out, "                                         - upload lesson media through the proxy")
	fmt.Fprintln(cli.out, "  watch                                  - follow session changes and live updates")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "The account email. The password will be prompted next.")

	profileCmd := flag.NewFlagSet("profile", flag.ContinueOnError)
	profileFirst := profileCmd.String("first", "", "New first name")
	profileLast := profileCmd.String("last", "", "New last name")
	profilePhone := profileCmd.String("phone", "", "New phone number, E.164 format")

	coursesCmd := flag.NewFlagSet("courses", flag.ContinueOnError)
	coursesSearch := coursesCmd.String("search", "", "Filter by title")
	coursesLevel := coursesCmd.String("level", "", "BEGINNER, INTERMEDIATE or ADVANCED")
	coursesPage := coursesCmd.Int("page", 1, "Page number")
	coursesLimit := coursesCmd.Int("limit", 20, "Page size")

	notificationsCmd := flag.NewFlagSet("notifications", flag.ContinueOnError)
	notificationsUnread := notificationsCmd.Bool("unread", false, "Only unread notifications")
	notificationsReadAll := notificationsCmd.Bool("read-all", false, "Mark every notification as read")

	uploadCmd := flag.NewFlagSet("upload", flag.ContinueOnError)
	uploadFile := uploadCmd.String("file", "", "Path of the file to upload")
	uploadKind := uploadCmd.String("kind", "", "video or pdf; inferred from the content when empty")
	uploadType := uploadCmd.String("type", "", "MIME type; detected from the content when empty")

	for _, fs := range []*flag.FlagSet{loginCmd, profileCmd, coursesCmd, notificationsCmd, uploadCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginEmail, string(pwd))
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		return cli.whoami()
	case "profile":
		if err := profileCmd.Parse(args[2:]); err != nil {
			return err
		}
		var in domain.UpdateProfileInput
		if *profileFirst != "" {
			in.FirstName = profileFirst
		}
		if *profileLast != "" {
			in.LastName = profileLast
		}
		if *profilePhone != "" {
			in.Phone = profilePhone
		}
		if in == (domain.UpdateProfileInput{}) {
			profileCmd.Usage()
			return errHelp
		}
		return cli.profile(ctx, in)
	case "courses":
		if err := coursesCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.courses(ctx, domain.CourseFilters{
			Search: *coursesSearch,
			Level:  domain.CourseLevel(strings.ToUpper(*coursesLevel)),
			Page:   *coursesPage,
			Limit:  *coursesLimit,
		})
	case "enrollments":
		return cli.enrollments(ctx)
	case "notifications":
		if err := notificationsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.notifications(ctx, *notificationsUnread, *notificationsReadAll)
	case "upload":
		if err := uploadCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uploadFile == "" {
			uploadCmd.Usage()
			return errHelp
		}
		return cli.upload(ctx, *uploadFile, domain.FileKind(*uploadKind), *uploadType)
	case "watch":
		if err := cli.requireSession(); err != nil {
			return err
		}
		return cli.watch(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) requireSession() error {
	if !cli.session.State().IsAuthenticated() {
		return errNotSignedIn
	}
	return nil
}

// requireRoute applies the route guard of the page a command stands for
func (cli *commandLine) requireRoute(path string) error {
	v := redirect.GuardPath(path, redirect.FlagsFrom(cli.session.State()))
	switch {
	case v.Allow:
		return nil
	case v.Redirect == routes.Unauthorized:
		return fmt.Errorf("%w: %s", errUnauthorized, path)
	default:
		return errNotSignedIn
	}
}

func (cli *commandLine) login(ctx context.Context, email, password string) error {
	user, err := cli.session.Login(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	// Data cached for a previous user must not leak into this session
	cli.cache.Clear()
	fmt.Fprintf(cli.out, "Signed in as %s <%s>\n", user.FullName(), user.Email)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	cli.session.Logout(ctx)
	cli.cache.Clear()
	fmt.Fprintln(cli.out, "Signed out")
	return nil
}

func (cli *commandLine) whoami() error {
	st := cli.session.State()
	if !st.IsAuthenticated() {
		return errNotSignedIn
	}

	user := st.Session.User
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.RawName())
	}
	fmt.Fprintf(cli.out, "%s <%s>\nroles: %s\n", user.FullName(), user.Email, strings.Join(roles, ", "))
	return nil
}

func (cli *commandLine) profile(ctx context.Context, in domain.UpdateProfileInput) error {
	if err := cli.requireSession(); err != nil {
		return err
	}
	user, err := cli.svc.Auth.UpdateProfile(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Profile updated: %s <%s>\n", user.FullName(), user.Email)
	return nil
}

func (cli *commandLine) courses(ctx context.Context, filters domain.CourseFilters) error {
	page, err := cli.svc.Courses.List(ctx, filters)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLEVEL\tSTATUS")
	for _, c := range page.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Title, c.Level, c.Status)
	}
	tw.Flush()
	fmt.Fprintf(cli.out, "page %d of %d (%d courses)\n", page.Page, page.TotalPages, page.Total)
	return nil
}

func (cli *commandLine) enrollments(ctx context.Context) error {
	if err := cli.requireRoute(routes.StudentCourses); err != nil {
		return err
	}
	enrollments, err := cli.svc.Enrollments.Mine(ctx)
	if err != nil {
		return err
	}
	if len(enrollments) == 0 {
		fmt.Fprintln(cli.out, "No enrollments")
		return nil
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURSE\tSTATUS\tPROGRESS")
	for _, e := range enrollments {
		title := e.CourseID
		if e.Course != nil {
			title = e.Course.Title
		}
		progress := "-"
		if e.Progress != nil {
			progress = fmt.Sprintf("%.0f%% (%d/%d)", e.Progress.Percentage, e.Progress.CompletedLessons, e.Progress.TotalLessons)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", title, e.Status, progress)
	}
	return tw.Flush()
}

func (cli *commandLine) notifications(ctx context.Context, unreadOnly, readAll bool) error {
	if err := cli.requireSession(); err != nil {
		return err
	}
	if readAll {
		return cli.svc.Notifications.MarkAllRead(ctx)
	}

	list, err := cli.svc.Notifications.List(ctx, unreadOnly)
	if err != nil {
		return err
	}
	unread := 0
	for _, n := range list {
		mark := " "
		if !n.Read {
			mark = "*"
			unread++
		}
		fmt.Fprintf(cli.out, "%s %s  %s: %s\n", mark, n.CreatedAt.Format("2006-01-02 15:04"), n.Title, n.Message)
	}
	fmt.Fprintf(cli.out, "%d unread\n", unread)
	return nil
}

func (cli *commandLine) upload(ctx context.Context, path string, kind domain.FileKind, mimeType string) error {
	if err := cli.requireSession(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if mimeType == "" {
		mt, err := mimetype.DetectReader(f)
		if err != nil {
			return fmt.Errorf("detect file type: %w", err)
		}
		mimeType = mt.String()
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}
	if kind == "" {
		k, ok := upload.KindFor(mimeType)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, mimeType)
		}
		kind = k
	}

	uploadID := uuid.NewString()
	fmt.Fprintf(cli.out, "Uploading %s (%s) as %s\n", filepath.Base(path), upload.FormatSize(info.Size()), uploadID)

	result, err := cli.uploader.Upload(ctx, upload.File{
		ID:       uploadID,
		Kind:     kind,
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Size:     info.Size(),
		Body:     f,
	}, func(p domain.UploadProgress) {
		fmt.Fprintf(cli.out, "\r%3.0f%%  %s / %s", p.Percent, upload.FormatSize(p.Loaded), upload.FormatSize(p.Total))
	})
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "Stored at %s\n", result.URL)
	return nil
}
