// Package processor wires configuration, logging, speech recognition and
// translation engines into the screen and runs it in the selected mode:
// desktop window, terminal screen, single phrase or batch file. It is the
// coordinator between all other components.
package processor
