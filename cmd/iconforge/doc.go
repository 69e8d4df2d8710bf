// Package main hosts the iconforge CLI.
//
// The Cobra command tree resolves configuration once, opens source documents
// through the canvas engine, and hands them to the export matrix driver.
// Each run is recorded in the SQLite history and, when configured, flushed
// to a metrics textfile. Interactive prompts are only offered on a terminal;
// unattended runs pass --label and --yes instead.
package main
