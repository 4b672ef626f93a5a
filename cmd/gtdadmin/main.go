package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gorm.io/datatypes"

	"github.com/yungbote/gtd-backend/internal/app"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/services"
)

const usage = `usage:
  gtdadmin flags                                   list feature flags
  gtdadmin flag-set -key KEY [-enabled] [-allow U]  create or replace a flag (-allow is repeatable)
  gtdadmin waitlist                                list waitlist entries`

var errUsage = errors.New(usage)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

type adminServices struct {
	flags    services.FeatureFlagService
	waitlist services.WaitlistService
}

func main() {
	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	svc := adminServices{flags: application.Services.Flags, waitlist: application.Services.Waitlist}
	if err := run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		application.Close()
		os.Exit(2)
	}
}

func run(ctx context.Context, svc adminServices, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "flags":
		return listFlags(ctx, svc.flags, out)
	case "flag-set":
		return setFlag(ctx, svc.flags, args[1:], out)
	case "waitlist":
		return listWaitlist(ctx, svc.waitlist, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func listFlags(ctx context.Context, flags services.FeatureFlagService, out io.Writer) error {
	list, err := flags.List(ctx)
	if err != nil {
		return fmt.Errorf("list flags: %w", err)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tENABLED\tALLOWED\tDESCRIPTION")
	for _, f := range list {
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", f.Key, f.Enabled, strings.Join(f.AllowedUsers, ","), f.Description)
	}
	return w.Flush()
}

func setFlag(ctx context.Context, flags services.FeatureFlagService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("flag-set", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var allow stringList
	key := fs.String("key", "", "flag key")
	enabled := fs.Bool("enabled", false, "turn the flag on for everyone")
	description := fs.String("description", "", "what the flag gates")
	fs.Var(&allow, "allow", "user id or email the flag is on for (repeatable)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v\n%s", err, usage)
	}
	if strings.TrimSpace(*key) == "" {
		return errUsage
	}
	f := &types.FeatureFlag{
		Key:          *key,
		Description:  *description,
		Enabled:      *enabled,
		AllowedUsers: datatypes.JSONSlice[string](allow),
	}
	if err := flags.Set(ctx, f); err != nil {
		return fmt.Errorf("set flag: %w", err)
	}
	fmt.Fprintf(out, "%s enabled=%t allowed=%d\n", f.Key, f.Enabled, len(f.AllowedUsers))
	return nil
}

func listWaitlist(ctx context.Context, waitlist services.WaitlistService, out io.Writer) error {
	list, err := waitlist.List(ctx)
	if err != nil {
		return fmt.Errorf("list waitlist: %w", err)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tJOINED\tNOTE")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Email, e.CreatedAt.Format("2006-01-02"), e.Note)
	}
	return w.Flush()
}
