// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/gammamatrix/homebrew-apache/internal/app/pipeline"
	"github.com/gammamatrix/homebrew-apache/internal/config"
	"github.com/gammamatrix/homebrew-apache/internal/install"
	"github.com/gammamatrix/homebrew-apache/internal/issue"
	"github.com/gammamatrix/homebrew-apache/pkg/formula"
	"github.com/gammamatrix/homebrew-apache/pkg/layout"
	"github.com/gammamatrix/homebrew-apache/pkg/options"
	"github.com/gammamatrix/homebrew-apache/pkg/plan"
	"github.com/gammamatrix/homebrew-apache/pkg/resolve"
	"github.com/gammamatrix/homebrew-apache/pkg/types"
)

// commandError wraps an engine error in an ActionableError and attaches the
// process exit code. Errors that already carry context keep it.
func commandError(operation, resource string, err error) error {
	if err == nil {
		return nil
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		ae = issue.NewErrorContext().
			WithOperation(operation).
			WithResource(resource).
			WithSuggestions(suggestionsFor(err)...).
			Wrap(err).
			Build()
	}
	return &ExitError{Code: exitCodeFor(err), Err: ae}
}

// exitCodeFor maps an error to the process exit status. A failed build
// step passes its own status through.
func exitCodeFor(err error) types.ExitCode {
	var stepErr *install.ExternalStepError
	if errors.As(err, &stepErr) && stepErr.ExitCode != types.ExitSuccess {
		return stepErr.ExitCode
	}
	if errors.Is(err, options.ErrUnknownOption) || errors.Is(err, errNoFormula) || errors.Is(err, errOptionTwice) {
		return types.ExitUsage
	}
	return types.ExitFailure
}

// issueFor returns the guidance entry describing err, if any.
func issueFor(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, formula.ErrFormulaNotFound):
		return issue.FormulaNotFoundId, true
	case errors.Is(err, formula.ErrInvalidFormula),
		errors.Is(err, formula.ErrUnsupportedFormat),
		errors.Is(err, formula.ErrInvalidPredicate),
		errors.Is(err, formula.ErrInvalidConstraint):
		return issue.FormulaParseErrorId, true
	case errors.Is(err, options.ErrUnknownOption):
		return issue.UnknownOptionId, true
	case errors.Is(err, resolve.ErrAmbiguousProvider):
		return issue.AmbiguousProviderId, true
	case errors.Is(err, resolve.ErrConflict):
		return issue.ConflictingPackageId, true
	case errors.Is(err, plan.ErrUnresolvedProviderPath), errors.Is(err, pipeline.ErrMissingDependency):
		return issue.ProviderNotInstalledId, true
	case errors.Is(err, layout.ErrCyclicReference),
		errors.Is(err, layout.ErrUndefinedReference),
		errors.Is(err, layout.ErrRelativePath),
		errors.Is(err, layout.ErrInvalidBinding):
		return issue.LayoutUnresolvableId, true
	case errors.Is(err, install.ErrExternalStep), errors.Is(err, install.ErrPatch):
		return issue.BuildStepFailedId, true
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId, true
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId, true
	default:
		return 0, false
	}
}

// suggestionsFor returns short hints for the known error classes.
func suggestionsFor(err error) []string {
	var (
		unknown   *options.UnknownOptionError
		ambiguous *resolve.AmbiguousProviderError
		conflict  *resolve.ConflictError
		provider  *plan.UnresolvedProviderPathError
		missing   *pipeline.MissingDependencyError
		stepErr   *install.ExternalStepError
	)

	switch {
	case errors.As(err, &unknown):
		return []string{"Run 'keg info <formula>' to list the declared options"}
	case errors.As(err, &ambiguous):
		return []string{fmt.Sprintf("Request only one provider for %q", ambiguous.Capability)}
	case errors.As(err, &conflict):
		return []string{fmt.Sprintf("Uninstall %s first", conflict.Package.Name)}
	case errors.As(err, &provider):
		return []string{
			fmt.Sprintf("Install %s first", provider.Package),
			fmt.Sprintf("Or drop the option that selects the %q provider", provider.Provider),
		}
	case errors.As(err, &missing):
		return []string{fmt.Sprintf("Install %s first", missing.Dependency.Package)}
	case errors.As(err, &stepErr):
		return []string{"Re-run with --verbose to see the step output and the error chain"}
	case errors.Is(err, formula.ErrFormulaNotFound):
		return []string{"Run 'keg formulas' to list the available formulas"}
	case errors.Is(err, errNoFormula):
		return []string{"Example: keg plan httpd22 --with privileged-ports"}
	case errors.Is(err, fs.ErrPermission):
		return []string{"Check that you own the prefix, or set 'prefix' in the config file"}
	default:
		return nil
	}
}
