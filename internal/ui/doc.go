package ui

// Package ui contains the interactive terminal front end. The Driver reads
// answers line by line, lists formats through the download service and
// renders a live progress line. All UI strings are localized via Localization.
