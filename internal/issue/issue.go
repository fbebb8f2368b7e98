// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type (
	// Id identifies a known class of problem.
	Id int

	// MarkdownMsg is guidance text rendered through glamour.
	MarkdownMsg string

	// HttpLink is a reference URL appended to the guidance.
	HttpLink string

	// Issue is a known problem with Markdown guidance for the user.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

const (
	FormulaNotFoundId Id = iota + 1
	FormulaParseErrorId
	UnknownOptionId
	AmbiguousProviderId
	ConflictingPackageId
	ProviderNotInstalledId
	LayoutUnresolvableId
	BuildStepFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

// Id returns the issue identifier.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw Markdown guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// ExtLinks returns a copy of the issue's reference links.
func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Render renders the guidance with the given glamour style ("dark",
// "light", "notty" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	formulaNotFoundIssue = &Issue{
		id: FormulaNotFoundId,
		mdMsg: `
# Formula not found!

keg looks for formulas in its built-in catalog and in every directory
listed under ` + "`formula_paths`" + ` in your configuration.

## Things you can try:
- List the formulas keg knows about:
~~~
$ keg formulas
~~~

- Load a formula file directly:
~~~
$ keg plan --file ./httpd22.cue
~~~`,
	}

	formulaParseErrorIssue = &Issue{
		id: FormulaParseErrorId,
		mdMsg: `
# Failed to parse formula!

The formula file does not match the formula schema.

## Common issues:
- A predicate names an option that is not declared under ` + "`options`" + `
- A required choice group has no ` + "`default: true`" + ` provider
- A layout role is declared twice

## Things you can try:
- Check the path in the error message above; it points at the failing field
- Compare with the built-in formula:
~~~
$ keg info httpd22
~~~`,
	}

	unknownOptionIssue = &Issue{
		id: UnknownOptionId,
		mdMsg: `
# Unknown build option!

Every ` + "`--with`" + ` and ` + "`--without`" + ` value must name an option the formula
declares. Nothing was planned or written.

## Things you can try:
- Show the formula's options:
~~~
$ keg info <formula>
~~~`,
	}

	ambiguousProviderIssue = &Issue{
		id: AmbiguousProviderId,
		mdMsg: `
# Contradictory provider selection!

Two options ask for different providers of the same capability (for
example a Homebrew-built APR and the APR bundled with the source tree).
keg never picks one for you.

## Things you can try:
- Keep only one of the options that select a provider for this capability
- Run ` + "`keg plan`" + ` to see which provider each option selects`,
	}

	conflictingPackageIssue = &Issue{
		id: ConflictingPackageId,
		mdMsg: `
# Conflicting package installed!

The formula cannot be installed next to a package that is already present.

## Things you can try:
- Uninstall or unlink the conflicting package, then retry
- Check what keg considers installed:
~~~
$ keg list
~~~`,
	}

	providerNotInstalledIssue = &Issue{
		id: ProviderNotInstalledId,
		mdMsg: `
# Provider not installed!

An option selects a Homebrew-built dependency, but its ` + "`opt/`" + ` prefix does
not exist.

## Things you can try:
- Install the dependency first
- Or drop the option to use the bundled or system provider`,
	}

	layoutUnresolvableIssue = &Issue{
		id: LayoutUnresolvableId,
		mdMsg: `
# Layout cannot be resolved!

A layout role refers to itself through other roles, names an unknown
role, or does not end up as an absolute path.

## Example of a cycle:
~~~cue
layout: roles: [
  {role: "datadir", path: "${htdocsdir}/.."},
  {role: "htdocsdir", path: "${datadir}/htdocs"},
]
~~~`,
	}

	buildStepFailedIssue = &Issue{
		id: BuildStepFailedId,
		mdMsg: `
# Build step failed!

configure, make or make install exited with a non-zero status. Steps that
already ran are not rolled back; re-running the install starts from the top.

## Things you can try:
- Read the tool output above for the first error
- Re-run with ` + "`--verbose`" + ` to see the exact command line
- Check ` + "`config.log`" + ` in the source directory after a configure failure`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Create a default configuration:
~~~
$ keg config init
~~~

- Print the effective configuration:
~~~
$ keg config show
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

keg could not write under the install prefix.

## Things you can try:
- Check ownership of the prefix (` + "`prefix`" + ` in your configuration)
- Point ` + "`prefix`" + ` and ` + "`cellar`" + ` at a directory you own`,
		extLinks: []HttpLink{"https://docs.brew.sh/Installation"},
	}

	issues = map[Id]*Issue{
		formulaNotFoundIssue.Id():      formulaNotFoundIssue,
		formulaParseErrorIssue.Id():    formulaParseErrorIssue,
		unknownOptionIssue.Id():        unknownOptionIssue,
		ambiguousProviderIssue.Id():    ambiguousProviderIssue,
		conflictingPackageIssue.Id():   conflictingPackageIssue,
		providerNotInstalledIssue.Id(): providerNotInstalledIssue,
		layoutUnresolvableIssue.Id():   layoutUnresolvableIssue,
		buildStepFailedIssue.Id():      buildStepFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

// Values returns every registered issue ordered by Id.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
