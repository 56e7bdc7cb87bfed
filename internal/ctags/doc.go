// Package ctags composes and executes the external tag-indexer invocation.
//
// The indexer's CLI contract is fixed: --exclude=<pattern>, --languages=<list>,
// -f <tagfile>, -R <dirs...>, plus --tag-relative=yes when relative paths are
// requested. Any ctags-compatible program works as the executable.
//
// Compose builds a Command; Command.Argv is the exec-ready token vector and
// Command.String reproduces the historical single-string form, including its
// doubled spaces around empty segments. The string form exists purely for
// audit logging and byte-compatibility with the command lines earlier
// tooling printed; execution always goes through the argv vector, so tokens
// containing spaces cannot be split by a shell.
package ctags
