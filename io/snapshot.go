/*package io reads and writes the run configuration and the binary snapshot
files produced by headless runs.

The snapshot format is:

    |-- 1 --||-- 2 --||-- ... 3 ... --||-- ... 4 ... --||-- ... 5 ... --|

    1 - (int32) Flag indicating the endianness of the file. 0 indicates a
        big endian byte ordering and -1 indicates a little endian byte
        order.
    2 - (int32) Size of a SnapshotHeader struct, checked for consistency.
    3 - (SnapshotHeader) Meta-information about the run and the step.
    4 - ([][3]float32) Contiguous block of x, y, z coordinates.
    5 - ([][3]float32) Contiguous block of v_x, v_y, v_z coordinates.
*/
package io

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"github.com/gravitree/gravitree/geom"
)

const (
	// Endianness flag written by default. Snapshots of either endianness
	// can be read back.
	DefaultEndiannessFlag int32 = -1
)

// SnapshotHeader describes the run a snapshot was taken from and the step
// it was taken at.
type SnapshotHeader struct {
	Count int64
	Step  int64

	G, E, DT  float64
	Theta     float64
	RootWidth float64
}

// WriteSnapshot writes the positions and velocities of ps to path.
func WriteSnapshot(path string, hd *SnapshotHeader, ps []geom.Particle) error {
	if hd.Count != int64(len(ps)) {
		panic(fmt.Sprintf(
			"Incorrect length for particle buffer. Found %d, expected %d",
			len(ps), hd.Count,
		))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	order := endianness(DefaultEndiannessFlag)
	if err = binary.Write(f, order, DefaultEndiannessFlag); err != nil {
		return err
	}
	if err = binary.Write(f, order, int32(unsafe.Sizeof(SnapshotHeader{}))); err != nil {
		return err
	}
	if err = binary.Write(f, order, hd); err != nil {
		return err
	}

	vs := make([]geom.Vec, len(ps))
	for i := range ps {
		vs[i] = ps[i].X
	}
	if err = binary.Write(f, order, vs); err != nil {
		return err
	}
	for i := range ps {
		vs[i] = ps[i].V
	}
	return binary.Write(f, order, vs)
}

// ReadSnapshotHeader reads only the header of the snapshot at path.
func ReadSnapshotHeader(path string) (*SnapshotHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hd := &SnapshotHeader{}
	if _, err = readHeader(f, hd); err != nil {
		return nil, err
	}
	return hd, nil
}

// ReadSnapshot reads the snapshot at path into ps, which must have length
// equal to the snapshot's particle count.
func ReadSnapshot(path string, ps []geom.Particle) (*SnapshotHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hd := &SnapshotHeader{}
	order, err := readHeader(f, hd)
	if err != nil {
		return nil, err
	}

	if hd.Count != int64(len(ps)) {
		panic(fmt.Sprintf(
			"Incorrect length for particle buffer. Found %d, expected %d",
			len(ps), hd.Count,
		))
	}

	vs := make([]geom.Vec, len(ps))
	if err = binary.Read(f, order, vs); err != nil {
		return nil, err
	}
	for i := range ps {
		ps[i].X = vs[i]
	}
	if err = binary.Read(f, order, vs); err != nil {
		return nil, err
	}
	for i := range ps {
		ps[i].V = vs[i]
	}
	return hd, nil
}

func readHeader(f *os.File, hd *SnapshotHeader) (binary.ByteOrder, error) {
	var flag, size int32
	if err := binary.Read(f, binary.LittleEndian, &flag); err != nil {
		return nil, err
	}
	order := endianness(flag)

	if err := binary.Read(f, order, &size); err != nil {
		return nil, err
	}
	if size != int32(unsafe.Sizeof(SnapshotHeader{})) {
		return nil, fmt.Errorf(
			"Header size is %d bytes, expected %d. File is from an "+
				"incompatible version.",
			size, unsafe.Sizeof(SnapshotHeader{}),
		)
	}
	if err := binary.Read(f, order, hd); err != nil {
		return nil, err
	}
	return order, nil
}

// endianness interprets the snapshot endianness flag.
func endianness(flag int32) binary.ByteOrder {
	if flag == 0 {
		return binary.BigEndian
	} else if flag == -1 {
		return binary.LittleEndian
	} else {
		panic("Unrecognized endianness flag.")
	}
}
