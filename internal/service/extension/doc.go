// Package extension downloads the uBlock Origin archive and unpacks it into
// the private extension directory.
//
// Installation has idempotent overwrite semantics: a prior install is removed
// in full before the new archive is extracted, the layout is flattened so the
// manifest sits at the directory root, and the temporary archive is always
// cleaned up.
package extension
