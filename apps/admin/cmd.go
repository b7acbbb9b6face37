package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/shop"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	log    core.Logger
	out    io.Writer
	gw     storage.Gateway
	reg    *school.Registry
	users  *user.Store
	usrSvc *user.Service
	schSvc *school.Service
}

// newCommandLine loads the saved state through `gw`; nothing saved yet means an empty school.
func newCommandLine(ctx context.Context, conf *core.Config, gw storage.Gateway, logger core.Logger, out io.Writer) (*commandLine, error) {
	reg, users := school.NewRegistry(), user.NewStore()
	if err := gw.Load(ctx, reg, users); err != nil {
		if !errors.Is(err, storage.ErrNoData) {
			return nil, err
		}
		logger.Info("no saved data, starting empty")
	}
	usrSvc, err := user.NewService(users, conf.AdminPassword, logger)
	if err != nil {
		return nil, err
	}
	return &commandLine{
		conf:   conf,
		log:    logger,
		out:    out,
		gw:     gw,
		reg:    reg,
		users:  users,
		usrSvc: usrSvc,
		schSvc: school.NewService(reg, logger),
	}, nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset user's password")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -role ROLE [-name NAME] [-email EMAIL] [-associated ID] - create a user")
	fmt.Fprintln(cli.out, "  orphans [-cleanup] - list (or remove) grades and attendance of unknown students")
	fmt.Fprintln(cli.out, "  stats -username USERNAME -student ID [-semester S] [-year Y] [-from DATE] [-to DATE] - student report")
	fmt.Fprintln(cli.out, "  export -username USERNAME -kind fees|grades -out FILE.xlsx - export a workbook")
	fmt.Fprintln(cli.out, "  metrics [-out FILE.prom] - write the registry gauges")
	fmt.Fprintln(cli.out, "  migrate -to sqlite|flatfile - copy the saved data to another storage driver")
	fmt.Fprintln(cli.out, "  backup - upload the saved data to the backup bucket")
	fmt.Fprintln(cli.out, "  inventory [-threshold N] - show the shop demo catalogue and its low stock")
}

// promptPassword reads a password without echoing it.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

// login opens a session for `uname` with a prompted password.
func (cli *commandLine) login(fs *flag.FlagSet, uname string) (*user.Session, error) {
	pwd, err := cli.promptPassword(fs)
	if err != nil {
		return nil, err
	}
	return cli.usrSvc.Login(uname, pwd)
}

// adminSession acts as the seeded admin for maintenance commands.
func (cli *commandLine) adminSession() (*user.Session, error) {
	admin, err := cli.users.Get(user.DefaultAdminUsername)
	if err != nil {
		return nil, err
	}
	return user.NewSession(admin), nil
}

func (cli *commandLine) save(ctx context.Context) error {
	return cli.gw.Save(ctx, cli.reg, cli.users)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	resetPasswordCmd := newFlagSet("resetpassword", cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	addUserCmd := newFlagSet("adduser", cli.out)
	addUserUname := addUserCmd.String("username", "", "The new user's username. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", "", "One of Admin, Teacher, Student, Parent.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAssoc := addUserCmd.String("associated", "", "The student or teacher id linked to the user.")

	orphansCmd := newFlagSet("orphans", cli.out)
	orphansCleanup := orphansCmd.Bool("cleanup", false, "Remove the orphaned records.")

	statsCmd := newFlagSet("stats", cli.out)
	statsUname := statsCmd.String("username", "", "The user requesting the report. The password will be prompted next.")
	statsStudent := statsCmd.String("student", "", "The student id.")
	statsSemester := statsCmd.String("semester", "", "The semester of the GPA (default Fall).")
	statsYear := statsCmd.String("year", "", "The academic year of the GPA (default 2024).")
	statsFrom := statsCmd.String("from", "", "Attendance start date, YYYY-MM-DD (default 30 days before -to).")
	statsTo := statsCmd.String("to", "", "Attendance end date, YYYY-MM-DD (default today).")

	exportCmd := newFlagSet("export", cli.out)
	exportUname := exportCmd.String("username", "", "The user requesting the export. The password will be prompted next.")
	exportKind := exportCmd.String("kind", "", "fees or grades.")
	exportOut := exportCmd.String("out", "", "The workbook path.")

	metricsCmd := newFlagSet("metrics", cli.out)
	metricsOut := metricsCmd.String("out", cli.conf.Metrics.Textfile, "The textfile path.")

	migrateCmd := newFlagSet("migrate", cli.out)
	migrateTo := migrateCmd.String("to", "", "The target storage driver: sqlite or flatfile.")

	backupCmd := newFlagSet("backup", cli.out)

	inventoryCmd := newFlagSet("inventory", cli.out)
	inventoryThreshold := inventoryCmd.Int("threshold", shop.DefaultLowStockThreshold, "Products with less stock are reported.")

	switch args[1] {
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordUname, pwd)
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(ctx, user.NewUser{
			Username:     *addUserUname,
			Password:     pwd,
			Role:         *addUserRole,
			FullName:     *addUserName,
			Email:        *addUserEmail,
			AssociatedID: *addUserAssoc,
		})
	case "orphans":
		if err := orphansCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.orphans(ctx, *orphansCleanup)
	case "stats":
		if err := statsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *statsUname == "" || *statsStudent == "" {
			statsCmd.Usage()
			return errHelp
		}
		sess, err := cli.login(statsCmd, *statsUname)
		if err != nil {
			return err
		}
		return cli.stats(sess, school.ReportQuery{
			StudentID:    *statsStudent,
			Semester:     *statsSemester,
			AcademicYear: *statsYear,
			From:         *statsFrom,
			To:           *statsTo,
		})
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportUname == "" || *exportOut == "" || (*exportKind != exportFees && *exportKind != exportGrades) {
			exportCmd.Usage()
			return errHelp
		}
		sess, err := cli.login(exportCmd, *exportUname)
		if err != nil {
			return err
		}
		return cli.export(sess, *exportKind, *exportOut)
	case "metrics":
		if err := metricsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *metricsOut == "" {
			metricsCmd.Usage()
			return errHelp
		}
		return cli.metrics(*metricsOut)
	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *migrateTo != driverSQLite && *migrateTo != driverFlatfile {
			migrateCmd.Usage()
			return errHelp
		}
		return cli.migrate(ctx, *migrateTo)
	case "backup":
		if err := backupCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.backup(ctx)
	case "inventory":
		if err := inventoryCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.inventory(*inventoryThreshold)
	default:
		cli.printUsage()
		return errHelp
	}
}
