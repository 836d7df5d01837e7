package lattice

// Version is the lattice release.
const Version = "0.1.0"
