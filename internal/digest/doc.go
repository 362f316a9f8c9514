// Package digest runs the newsletter pipeline over a mail source.
//
// A Pipeline lists candidate messages, fetches each one, classifies it and
// segments newsletters into stories. Per-message failures never abort a run;
// they are logged, counted and noted in the digest's process log.
package digest
