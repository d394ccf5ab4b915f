package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/service"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type teacherRegistrar interface {
	Register(ctx context.Context, req service.RegisterTeacherRequest) (*models.TeacherProfile, error)
}

type reportExports interface {
	ClassReportText(ctx context.Context, classID int) (string, error)
	ExportClassReport(ctx context.Context, classID int, format models.ReportFormat) (*models.ExportResult, error)
	ExportAllTranscripts(ctx context.Context) ([]models.ExportResult, error)
	Cleanup(ttl time.Duration) ([]string, error)
}

// commandLine reads records from a read-only store; add-teacher goes through
// the API at apiURL so a running server never loses the new account.
type commandLine struct {
	out       io.Writer
	apiURL    string
	registrar func(baseURL string) teacherRegistrar
	exports   reportExports
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  add-teacher -name NAME -code CODE [-api URL] - create a teacher account through the API (password is prompted)")
	fmt.Fprintln(cli.out, "  class-report -class ID                 - print a class report")
	fmt.Fprintln(cli.out, "  export-class -class ID [-format pdf]   - write a class report file")
	fmt.Fprintln(cli.out, "  transcripts                            - write a PDF report card for every student")
	fmt.Fprintln(cli.out, "  cleanup-exports [-older-than 168h]     - delete old report files")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTeacherCmd := flag.NewFlagSet("add-teacher", flag.ContinueOnError)
	teacherName := addTeacherCmd.String("name", "", "The teacher's full name.")
	teacherCode := addTeacherCmd.String("code", "", "The registration code used to sign in.")
	apiURL := addTeacherCmd.String("api", cli.apiURL, "Base URL of the running gradebook API.")

	classReportCmd := flag.NewFlagSet("class-report", flag.ContinueOnError)
	reportClass := classReportCmd.Int("class", 0, "Class ID.")

	exportClassCmd := flag.NewFlagSet("export-class", flag.ContinueOnError)
	exportClass := exportClassCmd.Int("class", 0, "Class ID.")
	exportFormat := exportClassCmd.String("format", "pdf", "pdf, csv or xlsx.")

	cleanupCmd := flag.NewFlagSet("cleanup-exports", flag.ContinueOnError)
	olderThan := cleanupCmd.Duration("older-than", 0, "Age of files to delete; defaults to the configured retention.")

	for _, fs := range []*flag.FlagSet{addTeacherCmd, classReportCmd, exportClassCmd, cleanupCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "add-teacher":
		if err := addTeacherCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *teacherName == "" || *teacherCode == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addTeacherCmd.Usage()
			return errHelp
		}
		profile, err := cli.registrar(*apiURL).Register(ctx, service.RegisterTeacherRequest{Name: *teacherName, RegistrationCode: *teacherCode, Password: string(pwd)})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "teacher %d (%s) created\n", profile.ID, profile.RegistrationCode)
		return nil

	case "class-report":
		if err := classReportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reportClass <= 0 {
			classReportCmd.Usage()
			return errHelp
		}
		text, err := cli.exports.ClassReportText(ctx, *reportClass)
		if err != nil {
			return err
		}
		fmt.Fprint(cli.out, text)
		return nil

	case "export-class":
		if err := exportClassCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportClass <= 0 {
			exportClassCmd.Usage()
			return errHelp
		}
		format, err := service.ParseFormat(*exportFormat)
		if err != nil {
			return err
		}
		result, err := cli.exports.ExportClassReport(ctx, *exportClass, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, result.RelativePath)
		return nil

	case "transcripts":
		results, err := cli.exports.ExportAllTranscripts(ctx)
		for _, r := range results {
			fmt.Fprintln(cli.out, r.RelativePath)
		}
		return err

	case "cleanup-exports":
		if err := cleanupCmd.Parse(args[2:]); err != nil {
			return err
		}
		removed, err := cli.exports.Cleanup(*olderThan)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d file(s) removed\n", len(removed))
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
