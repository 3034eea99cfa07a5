package addr

// Address is a full 64-bit address: the (64, 0) extent.
func Address(value uint64) Slice {
	return NewStatic(Bits, 0, value)
}

// BlockNumber returns the bits of full above the block offset, given the
// configured log2 block size (mirrors champsim::block_number).
func BlockNumber(log2BlockSize int, full Slice) Slice {
	return full.Slice(full.Width(), log2BlockSize)
}

// BlockOffset returns the block-offset bits of full, given the configured
// log2 block size (mirrors champsim::block_offset).
func BlockOffset(log2BlockSize int, full Slice) Slice {
	return full.Slice(log2BlockSize, 0)
}

// PageNumber returns the bits of full above the page offset, given the
// configured log2 page size (mirrors champsim::page_number).
func PageNumber(log2PageSize int, full Slice) Slice {
	return full.Slice(full.Width(), log2PageSize)
}

// PageOffset returns the page-offset bits of full, given the configured
// log2 page size (mirrors champsim::page_offset).
func PageOffset(log2PageSize int, full Slice) Slice {
	return full.Slice(log2PageSize, 0)
}
