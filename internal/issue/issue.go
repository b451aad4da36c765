// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestParseErrorId Id = iota + 1
	DuplicatePackageId
	UnresolvedDependencyId
	DependencyCycleId
	RevisionNotFoundId
	RepositoryNotFoundId
	InternalOrderingId
	ConfigLoadFailedId
	ContainerEngineNotFoundId
	BuildFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	extLinks []HttpLink // external references, rendered under "See also"
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal markdown using the glamour style at stylePath
// ("dark", "light", "notty", "auto" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- " + string(link) + "\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# A package descriptor could not be read

monobuild never skips a package it cannot understand, so the whole run stopped.
The message above names the descriptor and, where possible, the offending field.

## Things you can try:
- For ` + "`monobuild.cue`" + ` files, check the field against the schema:
~~~cue
name:       "api"
kind:       "go"          // go, node, python, rust, docker or generic
depends_on: ["core"]
~~~
- For ` + "`go.mod`" + `, ` + "`package.json`" + ` and ` + "`Cargo.toml`" + `, make sure the native tool accepts the file.
- Two native descriptors (` + "`monobuild.cue`" + `, ` + "`.yaml`" + `, ` + "`.hcl`" + `) in one directory are ambiguous; keep one.
- Add the directory to ` + "`ignore`" + ` in ` + "`.monobuild/config.cue`" + ` if it is not a package.`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	duplicatePackageIssue = &Issue{
		id: DuplicatePackageId,
		mdMsg: `
# Two packages share the same name

Package identities must be unique across the repository because dependencies refer to them by name.

## Things you can try:
- Rename one of the packages (` + "`name`" + ` in a native descriptor, the module path in ` + "`go.mod`" + `, ` + "`name`" + ` in ` + "`package.json`" + `).
- A bare Dockerfile is named after its directory; two directories with the same base name need a native descriptor with an explicit name.`,
	}

	unresolvedDependencyIssue = &Issue{
		id: UnresolvedDependencyId,
		mdMsg: `
# A dependency names an unknown package

A package declares a dependency that no descriptor in the repository provides.

## Things you can try:
- Check the spelling against ` + "`monobuild list`" + `.
- If the dependency lives outside the repository, remove it from ` + "`depends_on`" + `.
- For Go modules, check ` + "`go.module_prefix`" + `: every requirement below the prefix must be a package of this repository.
- Make sure the dependency's directory is not excluded by an ` + "`ignore`" + ` glob.`,
		extLinks: []HttpLink{"https://go.dev/ref/mod#go-mod-file"},
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Packages depend on each other in a cycle

No build order exists while the cycle is present. The message above lists the cycle in dependency order.

## Things you can try:
- Move the shared code into a new package both sides depend on.
- Drop the dependency that closes the loop.
- Render the graph to look at it:
~~~
$ monobuild graph --dot | dot -Tsvg > graph.svg
~~~`,
	}

	revisionNotFoundIssue = &Issue{
		id: RevisionNotFoundId,
		mdMsg: `
# A revision could not be resolved

Change detection needs both the base and the head revision to exist locally.

## Things you can try:
- CI checkouts are often shallow; fetch more history:
~~~
$ git fetch --unshallow
$ git fetch origin develop master
~~~
- Pass an explicit base with ` + "`--base <rev>`" + `.
- Delete a stale last-built marker in ` + "`.monobuild/state/`" + ` after history was rewritten.
- Use ` + "`--force`" + ` (or ` + "`GITLAB_FORCE_BUILD=1`" + `) to rebuild everything.`,
		extLinks: []HttpLink{"https://git-scm.com/docs/gitrevisions"},
	}

	repositoryNotFoundIssue = &Issue{
		id: RepositoryNotFoundId,
		mdMsg: `
# No git repository found

Change detection reads git history, but the repository root is not inside a git checkout.

## Things you can try:
- Run monobuild from inside the checkout or pass ` + "`--root`" + `.
- Use ` + "`--patch <file>`" + ` to supply changes as a unified diff instead.
- Use ` + "`--force`" + ` to plan every package.`,
	}

	internalOrderingIssue = &Issue{
		id: InternalOrderingId,
		mdMsg: `
# Internal ordering error

The build plan failed its own consistency check. This is a bug in monobuild, not in your repository.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` and report the output together with ` + "`monobuild graph --dot`" + `.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

## Things you can try:
- Show where monobuild looks for configuration:
~~~
$ monobuild config path
~~~
- Write a fresh file with every default spelled out:
~~~
$ monobuild config init
~~~
- Check the reported field against ` + "`monobuild config dump`" + `.`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# No container engine available

Image builds need ` + "`docker`" + ` or ` + "`podman`" + ` on the PATH.

## Things you can try:
- Install one of them, or select the installed one with ` + "`container.engine`" + `.
- Use ` + "`--action script`" + ` or ` + "`--dry-run`" + ` to run without images.`,
		extLinks: []HttpLink{"https://docs.docker.com/engine/install/", "https://podman.io/docs/installation"},
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Some packages failed to build

The summary above lists failed packages and the dependents skipped because of them.
The last-built marker was not moved, so the next run retries the same range.

## Things you can try:
- Re-run with ` + "`--policy continue`" + ` to build every independent package.
- Re-run a single ecosystem with ` + "`--kind`" + `.`,
	}

	issues = map[Id]*Issue{
		manifestParseErrorIssue.Id():      manifestParseErrorIssue,
		duplicatePackageIssue.Id():        duplicatePackageIssue,
		unresolvedDependencyIssue.Id():    unresolvedDependencyIssue,
		dependencyCycleIssue.Id():         dependencyCycleIssue,
		revisionNotFoundIssue.Id():        revisionNotFoundIssue,
		repositoryNotFoundIssue.Id():      repositoryNotFoundIssue,
		internalOrderingIssue.Id():        internalOrderingIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		buildFailedIssue.Id():             buildFailedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
