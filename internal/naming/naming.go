// Package naming computes the name and photo a chat is displayed with for a
// particular viewer. Stored data is never modified.
package naming

import "strings"

type Member struct {
	ID       string
	Username string
	Photo    *string
}

type Input struct {
	ViewerID string
	Name     *string
	Photo    *string
	Members  []Member
}

type Display struct {
	Name  string
	Photo string
}

// Resolver carries the fallback pictures for chats without a photo.
type Resolver struct {
	DefaultPicture      string
	DefaultGroupPicture string
}

func (r Resolver) Resolve(in Input) Display {
	direct := len(in.Members) <= 2
	out := Display{}
	photo := in.Photo

	switch {
	case in.Name != nil:
		out.Name = *in.Name
	case direct:
		if other, ok := otherMember(in.Members, in.ViewerID); ok {
			out.Name = other.Username
			photo = other.Photo
		}
	default:
		others := make([]string, 0, len(in.Members))
		for _, m := range in.Members {
			if m.ID != in.ViewerID {
				others = append(others, m.Username)
			}
		}
		out.Name = JoinNames(others)
	}

	switch {
	case photo != nil:
		out.Photo = *photo
	case direct:
		out.Photo = r.DefaultPicture
	default:
		out.Photo = r.DefaultGroupPicture
	}
	return out
}

// otherMember returns the first member that is not the viewer. A chat holding
// only the viewer resolves to the viewer.
func otherMember(members []Member, viewerID string) (Member, bool) {
	for _, m := range members {
		if m.ID != viewerID {
			return m, true
		}
	}
	if len(members) > 0 {
		return members[0], true
	}
	return Member{}, false
}

// JoinNames renders usernames as "A, B & C". A single name is returned as is.
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	last := len(names) - 1
	return strings.Join(names[:last], ", ") + " & " + names[last]
}
