// Package media defines the file kinds the conversion pipeline understands
// and the extension-based classifier that assigns them.
//
// Classification is deliberately content-blind: a file named like a video is
// treated as one, and mislabeled content fails during conversion where the
// failure can be recorded per file.
package media
