// Package pacman reads the bits of system state the interpreter consults:
// the installed-package database, the database lock file and pacman.conf.
package pacman
