package vgm

// AppendCommand serializes one command onto dst in wire form. The only
// command that can fail is PCMRAMWrite, which has no stable encoding.
func AppendCommand(dst []byte, cmd Command) ([]byte, error) {
	return cmd.appendTo(dst)
}

// EncodeCommand returns the wire form of a single command.
func EncodeCommand(cmd Command) ([]byte, error) {
	return cmd.appendTo(nil)
}

// AppendCommands serializes a command sequence onto dst. The sequence is
// written as-is; callers building files from scratch are expected to end
// it with EndOfSoundData.
func AppendCommands(dst []byte, cmds []Command) ([]byte, error) {
	var err error
	for _, cmd := range cmds {
		dst, err = cmd.appendTo(dst)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}
