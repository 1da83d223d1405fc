// Package finding defines the records every probe produces.
//
// A Finding is an immutable value: probes build one and append it, nothing
// mutates it afterwards. Its Kind is an open string tag rather than a
// closed enum. Adding a vulnerability class means adding a Kind constant,
// whatever type-specific fields it needs, and a feature-encoding branch
// in the severity classifier; existing consumers keep working because
// unknown kinds serialize like any other.
//
// Wire shape (stable field names):
//
//	{"type":"xss_reflected","url":"http://t/s?q=...","detail":"...","param":"q","payload":"..."}
//
// Record adds severity_class and severity_confidence when a classifier
// has annotated the finding.
package finding
