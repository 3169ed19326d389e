package id3v2

// Kind identifies a frame independently of the version-specific frame ID.
type Kind int

// Frame kinds.
const (
	KindUnknown Kind = iota
	KindAudioSeekPointIndex
	KindLength
	KindMusicCDIdentifier
	KindTrackNumber
	KindDiscNumber
	KindTitle
	KindArtist
	KindAlbumArtist
	KindAlbum
	KindComposer
	KindGenre
	KindYear
	KindRecordingTime
	KindBPM
	KindCopyright
	KindPublisher
	KindEncodedBy
	KindUserText
	KindComment
	KindLyrics
	KindPicture
	KindUniqueFileID
	KindPrivate
)

type kindIDs struct {
	name string
	// ids per major version 2, 3, 4; "" when the version has no such frame.
	ids [3]string
}

// frameTable maps every kind to its frame IDs.
var frameTable = [...]kindIDs{
	KindUnknown:             {"unknown", [3]string{}},
	KindAudioSeekPointIndex: {"audio seek point index", [3]string{"", "", "ASPI"}},
	KindLength:              {"length", [3]string{"TLE", "TLEN", "TLEN"}},
	KindMusicCDIdentifier:   {"music CD identifier", [3]string{"MCI", "MCDI", "MCDI"}},
	KindTrackNumber:         {"track number", [3]string{"TRK", "TRCK", "TRCK"}},
	KindDiscNumber:          {"disc number", [3]string{"TPA", "TPOS", "TPOS"}},
	KindTitle:               {"title", [3]string{"TT2", "TIT2", "TIT2"}},
	KindArtist:              {"artist", [3]string{"TP1", "TPE1", "TPE1"}},
	KindAlbumArtist:         {"album artist", [3]string{"TP2", "TPE2", "TPE2"}},
	KindAlbum:               {"album", [3]string{"TAL", "TALB", "TALB"}},
	KindComposer:            {"composer", [3]string{"TCM", "TCOM", "TCOM"}},
	KindGenre:               {"genre", [3]string{"TCO", "TCON", "TCON"}},
	KindYear:                {"year", [3]string{"TYE", "TYER", ""}},
	KindRecordingTime:       {"recording time", [3]string{"", "", "TDRC"}},
	KindBPM:                 {"BPM", [3]string{"TBP", "TBPM", "TBPM"}},
	KindCopyright:           {"copyright", [3]string{"TCR", "TCOP", "TCOP"}},
	KindPublisher:           {"publisher", [3]string{"TPB", "TPUB", "TPUB"}},
	KindEncodedBy:           {"encoded by", [3]string{"TEN", "TENC", "TENC"}},
	KindUserText:            {"user text", [3]string{"TXX", "TXXX", "TXXX"}},
	KindComment:             {"comment", [3]string{"COM", "COMM", "COMM"}},
	KindLyrics:              {"lyrics", [3]string{"ULT", "USLT", "USLT"}},
	KindPicture:             {"picture", [3]string{"PIC", "APIC", "APIC"}},
	KindUniqueFileID:        {"unique file ID", [3]string{"UFI", "UFID", "UFID"}},
	KindPrivate:             {"private", [3]string{"", "PRIV", "PRIV"}},
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(frameTable) {
		return "unknown"
	}
	return frameTable[k].name
}

// KindOf returns the kind of frame id in a tag of the given major version.
func KindOf(id string, major byte) Kind {
	if id == "" || major < 2 || major > 4 {
		return KindUnknown
	}
	for k, e := range frameTable {
		if k != int(KindUnknown) && e.ids[major-2] == id {
			return Kind(k)
		}
	}
	return KindUnknown
}

// IDOf returns the frame ID of kind in the given major version.
func IDOf(kind Kind, major byte) (string, bool) {
	if major < 2 || major > 4 || kind <= KindUnknown || int(kind) >= len(frameTable) {
		return "", false
	}
	id := frameTable[kind].ids[major-2]
	return id, id != ""
}

// dependency states that a dependent frame requires a frame of another
// kind in the versions [minMajor, maxMajor].
type dependency struct {
	dependent Kind
	required  Kind
	minMajor  byte
	maxMajor  byte
}

var dependencyTable = [...]dependency{
	{dependent: KindAudioSeekPointIndex, required: KindLength, minMajor: 4, maxMajor: 4},
	{dependent: KindMusicCDIdentifier, required: KindTrackNumber, minMajor: 2, maxMajor: 4},
}

// dependencies returns the rules that apply to major.
func dependencies(major byte) []dependency {
	var out []dependency
	for _, d := range dependencyTable {
		if major >= d.minMajor && major <= d.maxMajor {
			out = append(out, d)
		}
	}
	return out
}

// validFrameID reports whether id is well formed for major.
func validFrameID(id string, major byte) bool {
	want := 4
	if major == 2 {
		want = 3
	}
	if len(id) != want {
		return false
	}
	for i := range len(id) {
		c := id[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
