// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/monobuild/monobuild/internal/changes"
	"github.com/monobuild/monobuild/internal/container"
	"github.com/monobuild/monobuild/internal/dag"
	"github.com/monobuild/monobuild/internal/executor"
	"github.com/monobuild/monobuild/internal/issue"
	"github.com/monobuild/monobuild/internal/plan"
	"github.com/monobuild/monobuild/internal/scan"
	"github.com/monobuild/monobuild/pkg/manifest"
	"github.com/monobuild/monobuild/pkg/types"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"
)

// Glamour styles for issue pages on a terminal and elsewhere.
const (
	issueStyleTTY   = "dark"
	issueStyleNoTTY = "notty"
)

// ServiceError carries the issue page a failure maps to. Always create via
// newServiceError.
type ServiceError struct {
	Err     error
	IssueID issue.Id
}

func newServiceError(err error, issueID issue.Id) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: issueID}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps a failure to its issue page. Zero means none applies.
func classifyError(err error) issue.Id {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.IssueID != 0 {
		return svcErr.IssueID
	}

	switch {
	case errors.Is(err, manifest.ErrManifestParse):
		return issue.ManifestParseErrorId
	case errors.Is(err, scan.ErrDuplicatePackage), errors.Is(err, dag.ErrDuplicateNode):
		return issue.DuplicatePackageId
	case errors.Is(err, dag.ErrUnresolvedDependency):
		return issue.UnresolvedDependencyId
	case errors.Is(err, dag.ErrCyclicDependency):
		return issue.DependencyCycleId
	case errors.Is(err, git.ErrRepositoryNotExists):
		return issue.RepositoryNotFoundId
	case errors.Is(err, changes.ErrRevisionResolution):
		return issue.RevisionNotFoundId
	case errors.Is(err, plan.ErrInternalOrdering):
		return issue.InternalOrderingId
	case errors.Is(err, container.ErrEngineNotAvailable):
		return issue.ContainerEngineNotFoundId
	case errors.Is(err, executor.ErrBuildFailed):
		return issue.BuildFailedId
	}
	return 0
}

// renderError prints err and, when one applies, its issue page.
func renderError(w io.Writer, err error, verbose bool) {
	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	id := classifyError(err)
	if id == 0 {
		return
	}
	if entry := issue.Get(id); entry != nil {
		style := issueStyleNoTTY
		if isTerminal(w) {
			style = issueStyleTTY
		}
		rendered, renderErr := entry.Render(style)
		if renderErr != nil {
			fmt.Fprintf(w, "%s rendering help: %v\n", WarningStyle.Render("!"), renderErr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// formatErrorForDisplay uses ActionableError.Format when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// fail renders err on the command's stderr and returns a silent ExitError
// carrying code, so fang does not print it a second time.
func (a *App) fail(cmd *cobra.Command, flags *rootFlagValues, code types.ExitCode, err error) error {
	renderError(a.stderr, err, flags.verbose)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return &ExitError{Code: code, Err: err}
}
