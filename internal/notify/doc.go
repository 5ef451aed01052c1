// Package notify presents user facing messages and hands back a dismiss handle.
//
// Terminal is the interactive implementation. Recorder keeps messages in memory
// for headless runs and tests, and mocks.MockNotifier is the generated gomock
// double for asserting exact call sequences.
package notify
