//go:build linux || freebsd || openbsd || netbsd

// Package x11 captures a display through the X server. When the MIT-SHM
// extension is available the server writes pixels straight into a shared
// memory segment, which acts as the CPU-side staging copy; the segment stays
// attached while the frame is borrowed and is torn down on release.
package x11

import (
	"fmt"
	"image"
	"time"

	"github.com/gen2brain/shm"
	"github.com/jezek/xgb"
	mshm "github.com/jezek/xgb/shm"
	"github.com/jezek/xgb/xinerama"
	"github.com/jezek/xgb/xproto"

	"github.com/suutaku/screencapture/internal/native"
)

// Session holds one X connection and duplicates one xinerama screen.
type Session struct {
	c      *xgb.Conn
	useShm bool
	screen *xproto.ScreenInfo
	reply  *xinerama.QueryScreensReply
	origin image.Point
	width  int
	height int

	// held SHM frame, zero when no frame is out
	shmID   int
	shmSeg  mshm.Seg
	shmData []byte
	held    bool
}

// NewSession connects to the X server and resolves the bounds of the given
// display. Fails when no X server is reachable, which is the headless case.
func NewSession(display int) (*Session, error) {
	c, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: x11: connect: %v", native.ErrUnsupported, err)
	}

	// Without xinerama there is no screen geometry to duplicate; that is the
	// same "this output cannot be captured" condition as a missing X server.
	if err := xinerama.Init(c); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: x11: xinerama init: %v", native.ErrUnsupported, err)
	}

	reply, err := xinerama.QueryScreens(c).Reply()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: x11: query screens: %v", native.ErrUnsupported, err)
	}
	if display < 0 || display >= int(reply.Number) {
		c.Close()
		return nil, fmt.Errorf("%w: x11: no display %d", native.ErrInvalidArgument, display)
	}

	useShm := true
	if err := mshm.Init(c); err != nil {
		useShm = false
	}

	info := reply.ScreenInfo[display]
	primary := reply.ScreenInfo[0]

	return &Session{
		c:      c,
		useShm: useShm,
		screen: xproto.Setup(c).DefaultScreen(c),
		reply:  reply,
		origin: image.Pt(int(info.XOrg)-int(primary.XOrg), int(info.YOrg)-int(primary.YOrg)),
		width:  int(info.Width),
		height: int(info.Height),
	}, nil
}

func (s *Session) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// AcquireFrame grabs the current contents of the display. X serves image
// requests synchronously, so the timeout is accepted for contract symmetry
// and never waited on.
func (s *Session) AcquireFrame(_ time.Duration) (*native.Frame, error) {
	if s.held {
		return nil, native.ErrFrameHeld
	}

	var data []byte
	if s.useShm {
		shmSize := s.width * s.height * native.BytesPerPixel
		shmID, err := shm.Get(shm.IPC_PRIVATE, shmSize, shm.IPC_CREAT|0777)
		if err != nil {
			return nil, fmt.Errorf("%w: x11: shmget: %v", native.ErrOutOfMemory, err)
		}

		seg, err := mshm.NewSegId(s.c)
		if err != nil {
			shm.Rm(shmID)
			return nil, fmt.Errorf("%w: x11: new seg id: %v", native.ErrAccessLost, err)
		}

		data, err = shm.At(shmID, 0, 0)
		if err != nil {
			shm.Rm(shmID)
			return nil, fmt.Errorf("%w: x11: shmat: %v", native.ErrOutOfMemory, err)
		}

		mshm.Attach(s.c, seg, uint32(shmID), false)

		_, err = mshm.GetImage(s.c, xproto.Drawable(s.screen.Root),
			int16(s.origin.X), int16(s.origin.Y),
			uint16(s.width), uint16(s.height), 0xffffffff,
			byte(xproto.ImageFormatZPixmap), seg, 0).Reply()
		if err != nil {
			mshm.Detach(s.c, seg)
			shm.Rm(shmID)
			shm.Dt(data)
			return nil, fmt.Errorf("%w: x11: shm get image: %v", native.ErrAccessLost, err)
		}

		s.shmID = shmID
		s.shmSeg = seg
		s.shmData = data
	} else {
		xImg, err := xproto.GetImage(s.c, xproto.ImageFormatZPixmap, xproto.Drawable(s.screen.Root),
			int16(s.origin.X), int16(s.origin.Y),
			uint16(s.width), uint16(s.height), 0xffffffff).Reply()
		if err != nil {
			return nil, fmt.Errorf("%w: x11: get image: %v", native.ErrAccessLost, err)
		}
		data = xImg.Data
	}

	s.held = true
	return &native.Frame{
		Pix:    data,
		Stride: s.width * native.BytesPerPixel,
		Width:  s.width,
		Height: s.height,
		Format: native.FormatBGRA,
	}, nil
}

// ReleaseFrame detaches and removes the SHM staging segment, if any.
func (s *Session) ReleaseFrame() error {
	if !s.held {
		return native.ErrNoFrame
	}
	if s.shmData != nil {
		mshm.Detach(s.c, s.shmSeg)
		shm.Rm(s.shmID)
		shm.Dt(s.shmData)
		s.shmID = 0
		s.shmSeg = 0
		s.shmData = nil
	}
	s.held = false
	return nil
}

func (s *Session) Close() error {
	if s.held {
		s.ReleaseFrame()
	}
	if s.c != nil {
		s.c.Close()
		s.c = nil
	}
	return nil
}

// DisplayNumber reports how many xinerama screens are attached.
func (s *Session) DisplayNumber() int {
	return int(s.reply.Number)
}
