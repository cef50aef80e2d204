// Package devpath reads and builds device paths, the firmware's
// self-describing linked-record format for locating devices and files.
//
// # Format
//
// A device path is a sequence of nodes, each a 4-byte header followed by a
// payload:
//
//	Offset  Size  Description
//	0x00    1     Type
//	0x01    1     Sub-type
//	0x02    2     Length of the node including the header (little-endian)
//	0x04    ...   Payload
//
// The sequence ends with the sentinel node 7F FF 04 00. There is no overall
// length field: a path's size is only known after walking every node. The
// format has 1-byte alignment, so the length is always read byte-wise.
//
// # Types
//
//   - Path: a read-only view of one complete path (borrowed bytes)
//   - Node: a view of a single node inside a Path
//   - Iterator: a single-use walk over the nodes of a Path
//   - PathBuf: a growable, copy-on-write path that always ends with the sentinel
package devpath
