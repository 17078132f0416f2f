package mem

import s "github.com/bnclabs/gosettings"

// Alignment default alignment for arena backing segments, matches the
// widest scalar accessor.
const Alignment = int64(8)

// Maxviewsize maximum segment size that can be bridged to a linear
// byte-addressable view.
const Maxviewsize = int64(1<<31 - 1)

// Maxsegmentsize maximum size addressable by the running system.
const Maxsegmentsize = int64(^uint(0) >> 1)

// Minarenasize minimum capacity for an arena's backing segment.
const Minarenasize = int64(8)

// Maxarenasize maximum capacity for an arena's backing segment. Can
// be used as default for settings-parameter `capacity`.
const Maxarenasize = int64(1024 * 1024 * 1024 * 1024) // 1TB

// Arena configurable parameters and default settings.
//
// "capacity" (int64, default: 1024*1024)
//		Size of the arena's backing segment in bytes. Cannot exceed
//		Maxarenasize.
//
// "backing" (string, default: "native")
//		Where the backing segment comes from, can be "native" for
//		off-heap memory obtained from the OS, or "heap" for a segment
//		backed by a golang byte-array.
//
func Defaultsettings() s.Settings {
	return s.Settings{
		"capacity": int64(1024 * 1024),
		"backing":  "native",
	}
}
