// Package opcode defines the instruction set of the script virtual machine.
// This package is the foundation that both the assembler and the VM depend on.
// The numeric values match the external bytecode format and must never be renumbered.
package opcode

import (
	"fmt"
	"sort"
	"strings"
)

// Opcode is the 16-bit numeric tag that starts every instruction in the code stream.
type Opcode uint16

// Size is the encoded width of an opcode in bytes.
const Size = 2

// Instruction set. Values 0x807d and 0x807e are unassigned in the bytecode format.
const (
	Noop8000                    Opcode = 0x8000
	ConstShort                  Opcode = 0x8001
	CriticalStart               Opcode = 0x8002
	CriticalDone                Opcode = 0x8003
	Jmp                         Opcode = 0x8004
	Call                        Opcode = 0x8005
	CallAt                      Opcode = 0x8006
	CallCondition               Opcode = 0x8007
	Callstart                   Opcode = 0x8008
	Exec                        Opcode = 0x8009
	Spawn                       Opcode = 0x800a
	Fork                        Opcode = 0x800b
	AToD                        Opcode = 0x800c
	DToA                        Opcode = 0x800d
	Exit                        Opcode = 0x800e
	Detach                      Opcode = 0x800f
	ExitProg                    Opcode = 0x8010
	StopProg                    Opcode = 0x8011
	FetchGlobal                 Opcode = 0x8012
	StoreGlobal                 Opcode = 0x8013
	FetchExternal               Opcode = 0x8014
	StoreExternal               Opcode = 0x8015
	ExportVar                   Opcode = 0x8016
	ExportProc                  Opcode = 0x8017
	Swap                        Opcode = 0x8018
	Swapa                       Opcode = 0x8019
	Pop                         Opcode = 0x801a
	Dup                         Opcode = 0x801b
	PopReturn                   Opcode = 0x801c
	PopExit                     Opcode = 0x801d
	PopAddress                  Opcode = 0x801e
	PopFlags                    Opcode = 0x801f
	PopFlagsReturn              Opcode = 0x8020
	PopFlagsExit                Opcode = 0x8021
	PopFlagsReturnExtern        Opcode = 0x8022
	PopFlagsExitExtern          Opcode = 0x8023
	PopFlagsReturnValExtern     Opcode = 0x8024
	PopFlagsReturnValExit       Opcode = 0x8025
	PopFlagsReturnValExitExtern Opcode = 0x8026
	CheckArgCount               Opcode = 0x8027
	LookupStringProc            Opcode = 0x8028
	PopBase                     Opcode = 0x8029
	PopToBase                   Opcode = 0x802a
	PushBase                    Opcode = 0x802b
	SetGlobal                   Opcode = 0x802c
	FetchProcAddress            Opcode = 0x802d
	Dump                        Opcode = 0x802e
	If                          Opcode = 0x802f
	While                       Opcode = 0x8030
	Store                       Opcode = 0x8031
	Fetch                       Opcode = 0x8032
	Equal                       Opcode = 0x8033
	NotEqual                    Opcode = 0x8034
	LessEqual                   Opcode = 0x8035
	GreaterEqual                Opcode = 0x8036
	Less                        Opcode = 0x8037
	Greater                     Opcode = 0x8038
	Add                         Opcode = 0x8039
	Sub                         Opcode = 0x803a
	Mul                         Opcode = 0x803b
	Div                         Opcode = 0x803c
	Mod                         Opcode = 0x803d
	And                         Opcode = 0x803e
	Or                          Opcode = 0x803f
	Bwand                       Opcode = 0x8040
	Bwor                        Opcode = 0x8041
	Bwxor                       Opcode = 0x8042
	Bwnot                       Opcode = 0x8043
	Floor                       Opcode = 0x8044
	Not                         Opcode = 0x8045
	Negate                      Opcode = 0x8046
	Wait                        Opcode = 0x8047
	Cancel                      Opcode = 0x8048
	Cancelall                   Opcode = 0x8049
	CriticalStart804a           Opcode = 0x804a
	CriticalDone804b            Opcode = 0x804b
	Sayquit                     Opcode = 0x804c
	Sayend                      Opcode = 0x804d
	Saystart                    Opcode = 0x804e
	Saystartpos                 Opcode = 0x804f
	Sayreplytitle               Opcode = 0x8050
	Saygotoreply                Opcode = 0x8051
	Sayreply                    Opcode = 0x8052
	Sayoption                   Opcode = 0x8053
	Saymessage                  Opcode = 0x8054
	Sayreplywindow              Opcode = 0x8055
	Sayoptionwindow             Opcode = 0x8056
	Sayborder                   Opcode = 0x8057
	Sayscrollup                 Opcode = 0x8058
	Sayscrolldown               Opcode = 0x8059
	Saysetspacing               Opcode = 0x805a
	Sayoptioncolor              Opcode = 0x805b
	Sayreplycolor               Opcode = 0x805c
	Sayrestart                  Opcode = 0x805d
	Saygetlastpos               Opcode = 0x805e
	Sayreplyflags               Opcode = 0x805f
	Sayoptionflags              Opcode = 0x8060
	Saymessagetimeout           Opcode = 0x8061
	Createwin                   Opcode = 0x8062
	Deletewin                   Opcode = 0x8063
	Selectwin                   Opcode = 0x8064
	Resizewin                   Opcode = 0x8065
	Scalewin                    Opcode = 0x8066
	Showwin                     Opcode = 0x8067
	Fillwin                     Opcode = 0x8068
	Fillrect                    Opcode = 0x8069
	Fillwin3X3                  Opcode = 0x806a
	Display                     Opcode = 0x806b
	Displaygfx                  Opcode = 0x806c
	Displayraw                  Opcode = 0x806d
	Loadpalettetable            Opcode = 0x806e
	Fadein                      Opcode = 0x806f
	Fadeout                     Opcode = 0x8070
	Gotoxy                      Opcode = 0x8071
	Print                       Opcode = 0x8072
	Format                      Opcode = 0x8073
	Printrect                   Opcode = 0x8074
	Setfont                     Opcode = 0x8075
	Settextflags                Opcode = 0x8076
	Settextcolor                Opcode = 0x8077
	Sethighlightcolor           Opcode = 0x8078
	Stopmovie                   Opcode = 0x8079
	Playmovie                   Opcode = 0x807a
	Movieflags                  Opcode = 0x807b
	Playmovierect               Opcode = 0x807c
	Addregion                   Opcode = 0x807f
	Addregionflag               Opcode = 0x8080
	Addregionproc               Opcode = 0x8081
	Addregionrightproc          Opcode = 0x8082
	Deleteregion                Opcode = 0x8083
	Activateregion              Opcode = 0x8084
	Checkregion                 Opcode = 0x8085
	Addbutton                   Opcode = 0x8086
	Addbuttontext               Opcode = 0x8087
	Addbuttonflag               Opcode = 0x8088
	Addbuttongfx                Opcode = 0x8089
	Addbuttonproc               Opcode = 0x808a
	Addbuttonrightproc          Opcode = 0x808b
	Deletebutton                Opcode = 0x808c
	Hidemouse                   Opcode = 0x808d
	Showmouse                   Opcode = 0x808e
	Mouseshape                  Opcode = 0x808f
	Refreshmouse                Opcode = 0x8090
	Setglobalmousefunc          Opcode = 0x8091
	Addnamedevent               Opcode = 0x8092
	Addnamedhandler             Opcode = 0x8093
	Clearnamed                  Opcode = 0x8094
	Signalnamed                 Opcode = 0x8095
	Addkey                      Opcode = 0x8096
	Deletekey                   Opcode = 0x8097
	Soundplay                   Opcode = 0x8098
	Soundpause                  Opcode = 0x8099
	Soundresume                 Opcode = 0x809a
	Soundstop                   Opcode = 0x809b
	Soundrewind                 Opcode = 0x809c
	Sounddelete                 Opcode = 0x809d
	Setoneoptpause              Opcode = 0x809e
	Selectfilelist              Opcode = 0x809f
	Tokenize                    Opcode = 0x80a0
	GiveExpPoints               Opcode = 0x80a1
	ScrReturn                   Opcode = 0x80a2
	PlaySfx                     Opcode = 0x80a3
	ObjName                     Opcode = 0x80a4
	SfxBuildOpenName            Opcode = 0x80a5
	GetPcStat                   Opcode = 0x80a6
	TileContainsPidObj          Opcode = 0x80a7
	SetMapStart                 Opcode = 0x80a8
	OverrideMapStart            Opcode = 0x80a9
	HasSkill                    Opcode = 0x80aa
	UsingSkill                  Opcode = 0x80ab
	RollVsSkill                 Opcode = 0x80ac
	SkillContest                Opcode = 0x80ad
	DoCheck                     Opcode = 0x80ae
	IsSuccess                   Opcode = 0x80af
	IsCritical                  Opcode = 0x80b0
	HowMuch                     Opcode = 0x80b1
	MarkAreaKnown               Opcode = 0x80b2
	ReactionInfluence           Opcode = 0x80b3
	Random                      Opcode = 0x80b4
	RollDice                    Opcode = 0x80b5
	MoveTo                      Opcode = 0x80b6
	CreateObjectSid             Opcode = 0x80b7
	DisplayMsg                  Opcode = 0x80b8
	ScriptOverrides             Opcode = 0x80b9
	ObjIsCarryingObjPid         Opcode = 0x80ba
	TileContainsObjPid          Opcode = 0x80bb
	SelfObj                     Opcode = 0x80bc
	SourceObj                   Opcode = 0x80bd
	TargetObj                   Opcode = 0x80be
	DudeObj                     Opcode = 0x80bf
	ObjBeingUsedWith            Opcode = 0x80c0
	LocalVar                    Opcode = 0x80c1
	SetLocalVar                 Opcode = 0x80c2
	MapVar                      Opcode = 0x80c3
	SetMapVar                   Opcode = 0x80c4
	GlobalVar                   Opcode = 0x80c5
	SetGlobalVar                Opcode = 0x80c6
	ScriptAction                Opcode = 0x80c7
	ObjType                     Opcode = 0x80c8
	ObjItemSubtype              Opcode = 0x80c9
	GetCritterStat              Opcode = 0x80ca
	SetCritterStat              Opcode = 0x80cb
	AnimateStandObj             Opcode = 0x80cc
	AnimateStandReverseObj      Opcode = 0x80cd
	AnimateMoveObjToTile        Opcode = 0x80ce
	TileInTileRect              Opcode = 0x80cf
	Attack                      Opcode = 0x80d0
	Noop80d1                    Opcode = 0x80d1
	TileDistance                Opcode = 0x80d2
	TileDistanceObjs            Opcode = 0x80d3
	TileNum                     Opcode = 0x80d4
	TileNumInDirection          Opcode = 0x80d5
	PickupObj                   Opcode = 0x80d6
	DropObj                     Opcode = 0x80d7
	AddObjToInven               Opcode = 0x80d8
	RmObjFromInven              Opcode = 0x80d9
	WieldObjCritter             Opcode = 0x80da
	UseObj                      Opcode = 0x80db
	ObjCanSeeObj                Opcode = 0x80dc
	Attack80dd                  Opcode = 0x80dd
	StartGdialog                Opcode = 0x80de
	EndDialogue                 Opcode = 0x80df
	DialogueReaction            Opcode = 0x80e0
	Metarule3                   Opcode = 0x80e1
	SetMapMusic                 Opcode = 0x80e2
	SetObjVisibility            Opcode = 0x80e3
	LoadMap                     Opcode = 0x80e4
	WmAreaSetPos                Opcode = 0x80e5
	SetExitGrids                Opcode = 0x80e6
	AnimBusy                    Opcode = 0x80e7
	CritterHeal                 Opcode = 0x80e8
	SetLightLevel               Opcode = 0x80e9
	GameTime                    Opcode = 0x80ea
	GameTimeInSeconds           Opcode = 0x80eb
	Elevation                   Opcode = 0x80ec
	KillCritter                 Opcode = 0x80ed
	KillCritterType             Opcode = 0x80ee
	CritterDamage               Opcode = 0x80ef
	AddTimerEvent               Opcode = 0x80f0
	RmTimerEvent                Opcode = 0x80f1
	GameTicks                   Opcode = 0x80f2
	HasTrait                    Opcode = 0x80f3
	DestroyObject               Opcode = 0x80f4
	ObjCanHearObj               Opcode = 0x80f5
	GameTimeHour                Opcode = 0x80f6
	FixedParam                  Opcode = 0x80f7
	TileIsVisible               Opcode = 0x80f8
	DialogueSystemEnter         Opcode = 0x80f9
	ActionBeingUsed             Opcode = 0x80fa
	CritterState                Opcode = 0x80fb
	GameTimeAdvance             Opcode = 0x80fc
	RadiationInc                Opcode = 0x80fd
	RadiationDec                Opcode = 0x80fe
	CritterAttemptPlacement     Opcode = 0x80ff
	ObjPid                      Opcode = 0x8100
	CurMapIndex                 Opcode = 0x8101
	CritterAddTrait             Opcode = 0x8102
	CritterRmTrait              Opcode = 0x8103
	ProtoData                   Opcode = 0x8104
	MessageStr                  Opcode = 0x8105
	CritterInvenObj             Opcode = 0x8106
	ObjSetLightLevel            Opcode = 0x8107
	WorldMap                    Opcode = 0x8108
	InvenCmds                   Opcode = 0x8109
	FloatMsg                    Opcode = 0x810a
	Metarule                    Opcode = 0x810b
	Anim                        Opcode = 0x810c
	ObjCarryingPidObj           Opcode = 0x810d
	RegAnimFunc                 Opcode = 0x810e
	RegAnimAnimate              Opcode = 0x810f
	RegAnimAnimateReverse       Opcode = 0x8110
	RegAnimObjMoveToObj         Opcode = 0x8111
	RegAnimObjRunToObj          Opcode = 0x8112
	RegAnimObjMoveToTile        Opcode = 0x8113
	RegAnimObjRunToTile         Opcode = 0x8114
	PlayGmovie                  Opcode = 0x8115
	AddMultObjsToInven          Opcode = 0x8116
	RmMultObjsFromInven         Opcode = 0x8117
	GetMonth                    Opcode = 0x8118
	GetDay                      Opcode = 0x8119
	Explosion                   Opcode = 0x811a
	DaysSinceVisited            Opcode = 0x811b
	GsayStart                   Opcode = 0x811c
	GsayEnd                     Opcode = 0x811d
	GsayReply                   Opcode = 0x811e
	GsayOption                  Opcode = 0x811f
	GsayMessage                 Opcode = 0x8120
	GiqOption                   Opcode = 0x8121
	Poison                      Opcode = 0x8122
	GetPoison                   Opcode = 0x8123
	PartyAdd                    Opcode = 0x8124
	PartyRemove                 Opcode = 0x8125
	RegAnimAnimateForever       Opcode = 0x8126
	CritterInjure               Opcode = 0x8127
	CombatIsInitialized         Opcode = 0x8128
	GdialogBarter               Opcode = 0x8129
	DifficultyLevel             Opcode = 0x812a
	RunningBurningGuy           Opcode = 0x812b
	InvenUnwield                Opcode = 0x812c
	ObjIsLocked                 Opcode = 0x812d
	ObjLock                     Opcode = 0x812e
	ObjUnlock                   Opcode = 0x812f
	ObjIsOpen                   Opcode = 0x8130
	ObjOpen                     Opcode = 0x8131
	ObjClose                    Opcode = 0x8132
	GameUiDisable               Opcode = 0x8133
	GameUiEnable                Opcode = 0x8134
	GameUiIsDisabled            Opcode = 0x8135
	GfadeOut                    Opcode = 0x8136
	GfadeIn                     Opcode = 0x8137
	ItemCapsTotal               Opcode = 0x8138
	ItemCapsAdjust              Opcode = 0x8139
	AnimActionFrame             Opcode = 0x813a
	RegAnimPlaySfx              Opcode = 0x813b
	CritterModSkill             Opcode = 0x813c
	SfxBuildCharName            Opcode = 0x813d
	SfxBuildAmbientName         Opcode = 0x813e
	SfxBuildInterfaceName       Opcode = 0x813f
	SfxBuildItemName            Opcode = 0x8140
	SfxBuildWeaponName          Opcode = 0x8141
	SfxBuildSceneryName         Opcode = 0x8142
	AttackSetup                 Opcode = 0x8143
	DestroyMultObjs             Opcode = 0x8144
	UseObjOnObj                 Opcode = 0x8145
	EndgameSlideshow            Opcode = 0x8146
	MoveObjInvenToObj           Opcode = 0x8147
	EndgameMovie                Opcode = 0x8148
	ObjArtFid                   Opcode = 0x8149
	ArtAnim                     Opcode = 0x814a
	PartyMemberObj              Opcode = 0x814b
	RotationToTile              Opcode = 0x814c
	JamLock                     Opcode = 0x814d
	GdialogSetBarterMod         Opcode = 0x814e
	CombatDifficulty            Opcode = 0x814f
	ObjOnScreen                 Opcode = 0x8150
	CritterIsFleeing            Opcode = 0x8151
	CritterSetFleeState         Opcode = 0x8152
	TerminateCombat             Opcode = 0x8153
	DebugMsg                    Opcode = 0x8154
	CritterStopAttacking        Opcode = 0x8155
	ConstString                 Opcode = 0x9001
	ConstFloat                  Opcode = 0xa001
	ConstLong                   Opcode = 0xc001
)

var names = map[Opcode]string{
	Noop8000:                    "Noop8000",
	ConstShort:                  "ConstShort",
	CriticalStart:               "CriticalStart",
	CriticalDone:                "CriticalDone",
	Jmp:                         "Jmp",
	Call:                        "Call",
	CallAt:                      "CallAt",
	CallCondition:               "CallCondition",
	Callstart:                   "Callstart",
	Exec:                        "Exec",
	Spawn:                       "Spawn",
	Fork:                        "Fork",
	AToD:                        "AToD",
	DToA:                        "DToA",
	Exit:                        "Exit",
	Detach:                      "Detach",
	ExitProg:                    "ExitProg",
	StopProg:                    "StopProg",
	FetchGlobal:                 "FetchGlobal",
	StoreGlobal:                 "StoreGlobal",
	FetchExternal:               "FetchExternal",
	StoreExternal:               "StoreExternal",
	ExportVar:                   "ExportVar",
	ExportProc:                  "ExportProc",
	Swap:                        "Swap",
	Swapa:                       "Swapa",
	Pop:                         "Pop",
	Dup:                         "Dup",
	PopReturn:                   "PopReturn",
	PopExit:                     "PopExit",
	PopAddress:                  "PopAddress",
	PopFlags:                    "PopFlags",
	PopFlagsReturn:              "PopFlagsReturn",
	PopFlagsExit:                "PopFlagsExit",
	PopFlagsReturnExtern:        "PopFlagsReturnExtern",
	PopFlagsExitExtern:          "PopFlagsExitExtern",
	PopFlagsReturnValExtern:     "PopFlagsReturnValExtern",
	PopFlagsReturnValExit:       "PopFlagsReturnValExit",
	PopFlagsReturnValExitExtern: "PopFlagsReturnValExitExtern",
	CheckArgCount:               "CheckArgCount",
	LookupStringProc:            "LookupStringProc",
	PopBase:                     "PopBase",
	PopToBase:                   "PopToBase",
	PushBase:                    "PushBase",
	SetGlobal:                   "SetGlobal",
	FetchProcAddress:            "FetchProcAddress",
	Dump:                        "Dump",
	If:                          "If",
	While:                       "While",
	Store:                       "Store",
	Fetch:                       "Fetch",
	Equal:                       "Equal",
	NotEqual:                    "NotEqual",
	LessEqual:                   "LessEqual",
	GreaterEqual:                "GreaterEqual",
	Less:                        "Less",
	Greater:                     "Greater",
	Add:                         "Add",
	Sub:                         "Sub",
	Mul:                         "Mul",
	Div:                         "Div",
	Mod:                         "Mod",
	And:                         "And",
	Or:                          "Or",
	Bwand:                       "Bwand",
	Bwor:                        "Bwor",
	Bwxor:                       "Bwxor",
	Bwnot:                       "Bwnot",
	Floor:                       "Floor",
	Not:                         "Not",
	Negate:                      "Negate",
	Wait:                        "Wait",
	Cancel:                      "Cancel",
	Cancelall:                   "Cancelall",
	CriticalStart804a:           "CriticalStart804a",
	CriticalDone804b:            "CriticalDone804b",
	Sayquit:                     "Sayquit",
	Sayend:                      "Sayend",
	Saystart:                    "Saystart",
	Saystartpos:                 "Saystartpos",
	Sayreplytitle:               "Sayreplytitle",
	Saygotoreply:                "Saygotoreply",
	Sayreply:                    "Sayreply",
	Sayoption:                   "Sayoption",
	Saymessage:                  "Saymessage",
	Sayreplywindow:              "Sayreplywindow",
	Sayoptionwindow:             "Sayoptionwindow",
	Sayborder:                   "Sayborder",
	Sayscrollup:                 "Sayscrollup",
	Sayscrolldown:               "Sayscrolldown",
	Saysetspacing:               "Saysetspacing",
	Sayoptioncolor:              "Sayoptioncolor",
	Sayreplycolor:               "Sayreplycolor",
	Sayrestart:                  "Sayrestart",
	Saygetlastpos:               "Saygetlastpos",
	Sayreplyflags:               "Sayreplyflags",
	Sayoptionflags:              "Sayoptionflags",
	Saymessagetimeout:           "Saymessagetimeout",
	Createwin:                   "Createwin",
	Deletewin:                   "Deletewin",
	Selectwin:                   "Selectwin",
	Resizewin:                   "Resizewin",
	Scalewin:                    "Scalewin",
	Showwin:                     "Showwin",
	Fillwin:                     "Fillwin",
	Fillrect:                    "Fillrect",
	Fillwin3X3:                  "Fillwin3X3",
	Display:                     "Display",
	Displaygfx:                  "Displaygfx",
	Displayraw:                  "Displayraw",
	Loadpalettetable:            "Loadpalettetable",
	Fadein:                      "Fadein",
	Fadeout:                     "Fadeout",
	Gotoxy:                      "Gotoxy",
	Print:                       "Print",
	Format:                      "Format",
	Printrect:                   "Printrect",
	Setfont:                     "Setfont",
	Settextflags:                "Settextflags",
	Settextcolor:                "Settextcolor",
	Sethighlightcolor:           "Sethighlightcolor",
	Stopmovie:                   "Stopmovie",
	Playmovie:                   "Playmovie",
	Movieflags:                  "Movieflags",
	Playmovierect:               "Playmovierect",
	Addregion:                   "Addregion",
	Addregionflag:               "Addregionflag",
	Addregionproc:               "Addregionproc",
	Addregionrightproc:          "Addregionrightproc",
	Deleteregion:                "Deleteregion",
	Activateregion:              "Activateregion",
	Checkregion:                 "Checkregion",
	Addbutton:                   "Addbutton",
	Addbuttontext:               "Addbuttontext",
	Addbuttonflag:               "Addbuttonflag",
	Addbuttongfx:                "Addbuttongfx",
	Addbuttonproc:               "Addbuttonproc",
	Addbuttonrightproc:          "Addbuttonrightproc",
	Deletebutton:                "Deletebutton",
	Hidemouse:                   "Hidemouse",
	Showmouse:                   "Showmouse",
	Mouseshape:                  "Mouseshape",
	Refreshmouse:                "Refreshmouse",
	Setglobalmousefunc:          "Setglobalmousefunc",
	Addnamedevent:               "Addnamedevent",
	Addnamedhandler:             "Addnamedhandler",
	Clearnamed:                  "Clearnamed",
	Signalnamed:                 "Signalnamed",
	Addkey:                      "Addkey",
	Deletekey:                   "Deletekey",
	Soundplay:                   "Soundplay",
	Soundpause:                  "Soundpause",
	Soundresume:                 "Soundresume",
	Soundstop:                   "Soundstop",
	Soundrewind:                 "Soundrewind",
	Sounddelete:                 "Sounddelete",
	Setoneoptpause:              "Setoneoptpause",
	Selectfilelist:              "Selectfilelist",
	Tokenize:                    "Tokenize",
	GiveExpPoints:               "GiveExpPoints",
	ScrReturn:                   "ScrReturn",
	PlaySfx:                     "PlaySfx",
	ObjName:                     "ObjName",
	SfxBuildOpenName:            "SfxBuildOpenName",
	GetPcStat:                   "GetPcStat",
	TileContainsPidObj:          "TileContainsPidObj",
	SetMapStart:                 "SetMapStart",
	OverrideMapStart:            "OverrideMapStart",
	HasSkill:                    "HasSkill",
	UsingSkill:                  "UsingSkill",
	RollVsSkill:                 "RollVsSkill",
	SkillContest:                "SkillContest",
	DoCheck:                     "DoCheck",
	IsSuccess:                   "IsSuccess",
	IsCritical:                  "IsCritical",
	HowMuch:                     "HowMuch",
	MarkAreaKnown:               "MarkAreaKnown",
	ReactionInfluence:           "ReactionInfluence",
	Random:                      "Random",
	RollDice:                    "RollDice",
	MoveTo:                      "MoveTo",
	CreateObjectSid:             "CreateObjectSid",
	DisplayMsg:                  "DisplayMsg",
	ScriptOverrides:             "ScriptOverrides",
	ObjIsCarryingObjPid:         "ObjIsCarryingObjPid",
	TileContainsObjPid:          "TileContainsObjPid",
	SelfObj:                     "SelfObj",
	SourceObj:                   "SourceObj",
	TargetObj:                   "TargetObj",
	DudeObj:                     "DudeObj",
	ObjBeingUsedWith:            "ObjBeingUsedWith",
	LocalVar:                    "LocalVar",
	SetLocalVar:                 "SetLocalVar",
	MapVar:                      "MapVar",
	SetMapVar:                   "SetMapVar",
	GlobalVar:                   "GlobalVar",
	SetGlobalVar:                "SetGlobalVar",
	ScriptAction:                "ScriptAction",
	ObjType:                     "ObjType",
	ObjItemSubtype:              "ObjItemSubtype",
	GetCritterStat:              "GetCritterStat",
	SetCritterStat:              "SetCritterStat",
	AnimateStandObj:             "AnimateStandObj",
	AnimateStandReverseObj:      "AnimateStandReverseObj",
	AnimateMoveObjToTile:        "AnimateMoveObjToTile",
	TileInTileRect:              "TileInTileRect",
	Attack:                      "Attack",
	Noop80d1:                    "Noop80d1",
	TileDistance:                "TileDistance",
	TileDistanceObjs:            "TileDistanceObjs",
	TileNum:                     "TileNum",
	TileNumInDirection:          "TileNumInDirection",
	PickupObj:                   "PickupObj",
	DropObj:                     "DropObj",
	AddObjToInven:               "AddObjToInven",
	RmObjFromInven:              "RmObjFromInven",
	WieldObjCritter:             "WieldObjCritter",
	UseObj:                      "UseObj",
	ObjCanSeeObj:                "ObjCanSeeObj",
	Attack80dd:                  "Attack80dd",
	StartGdialog:                "StartGdialog",
	EndDialogue:                 "EndDialogue",
	DialogueReaction:            "DialogueReaction",
	Metarule3:                   "Metarule3",
	SetMapMusic:                 "SetMapMusic",
	SetObjVisibility:            "SetObjVisibility",
	LoadMap:                     "LoadMap",
	WmAreaSetPos:                "WmAreaSetPos",
	SetExitGrids:                "SetExitGrids",
	AnimBusy:                    "AnimBusy",
	CritterHeal:                 "CritterHeal",
	SetLightLevel:               "SetLightLevel",
	GameTime:                    "GameTime",
	GameTimeInSeconds:           "GameTimeInSeconds",
	Elevation:                   "Elevation",
	KillCritter:                 "KillCritter",
	KillCritterType:             "KillCritterType",
	CritterDamage:               "CritterDamage",
	AddTimerEvent:               "AddTimerEvent",
	RmTimerEvent:                "RmTimerEvent",
	GameTicks:                   "GameTicks",
	HasTrait:                    "HasTrait",
	DestroyObject:               "DestroyObject",
	ObjCanHearObj:               "ObjCanHearObj",
	GameTimeHour:                "GameTimeHour",
	FixedParam:                  "FixedParam",
	TileIsVisible:               "TileIsVisible",
	DialogueSystemEnter:         "DialogueSystemEnter",
	ActionBeingUsed:             "ActionBeingUsed",
	CritterState:                "CritterState",
	GameTimeAdvance:             "GameTimeAdvance",
	RadiationInc:                "RadiationInc",
	RadiationDec:                "RadiationDec",
	CritterAttemptPlacement:     "CritterAttemptPlacement",
	ObjPid:                      "ObjPid",
	CurMapIndex:                 "CurMapIndex",
	CritterAddTrait:             "CritterAddTrait",
	CritterRmTrait:              "CritterRmTrait",
	ProtoData:                   "ProtoData",
	MessageStr:                  "MessageStr",
	CritterInvenObj:             "CritterInvenObj",
	ObjSetLightLevel:            "ObjSetLightLevel",
	WorldMap:                    "WorldMap",
	InvenCmds:                   "InvenCmds",
	FloatMsg:                    "FloatMsg",
	Metarule:                    "Metarule",
	Anim:                        "Anim",
	ObjCarryingPidObj:           "ObjCarryingPidObj",
	RegAnimFunc:                 "RegAnimFunc",
	RegAnimAnimate:              "RegAnimAnimate",
	RegAnimAnimateReverse:       "RegAnimAnimateReverse",
	RegAnimObjMoveToObj:         "RegAnimObjMoveToObj",
	RegAnimObjRunToObj:          "RegAnimObjRunToObj",
	RegAnimObjMoveToTile:        "RegAnimObjMoveToTile",
	RegAnimObjRunToTile:         "RegAnimObjRunToTile",
	PlayGmovie:                  "PlayGmovie",
	AddMultObjsToInven:          "AddMultObjsToInven",
	RmMultObjsFromInven:         "RmMultObjsFromInven",
	GetMonth:                    "GetMonth",
	GetDay:                      "GetDay",
	Explosion:                   "Explosion",
	DaysSinceVisited:            "DaysSinceVisited",
	GsayStart:                   "GsayStart",
	GsayEnd:                     "GsayEnd",
	GsayReply:                   "GsayReply",
	GsayOption:                  "GsayOption",
	GsayMessage:                 "GsayMessage",
	GiqOption:                   "GiqOption",
	Poison:                      "Poison",
	GetPoison:                   "GetPoison",
	PartyAdd:                    "PartyAdd",
	PartyRemove:                 "PartyRemove",
	RegAnimAnimateForever:       "RegAnimAnimateForever",
	CritterInjure:               "CritterInjure",
	CombatIsInitialized:         "CombatIsInitialized",
	GdialogBarter:               "GdialogBarter",
	DifficultyLevel:             "DifficultyLevel",
	RunningBurningGuy:           "RunningBurningGuy",
	InvenUnwield:                "InvenUnwield",
	ObjIsLocked:                 "ObjIsLocked",
	ObjLock:                     "ObjLock",
	ObjUnlock:                   "ObjUnlock",
	ObjIsOpen:                   "ObjIsOpen",
	ObjOpen:                     "ObjOpen",
	ObjClose:                    "ObjClose",
	GameUiDisable:               "GameUiDisable",
	GameUiEnable:                "GameUiEnable",
	GameUiIsDisabled:            "GameUiIsDisabled",
	GfadeOut:                    "GfadeOut",
	GfadeIn:                     "GfadeIn",
	ItemCapsTotal:               "ItemCapsTotal",
	ItemCapsAdjust:              "ItemCapsAdjust",
	AnimActionFrame:             "AnimActionFrame",
	RegAnimPlaySfx:              "RegAnimPlaySfx",
	CritterModSkill:             "CritterModSkill",
	SfxBuildCharName:            "SfxBuildCharName",
	SfxBuildAmbientName:         "SfxBuildAmbientName",
	SfxBuildInterfaceName:       "SfxBuildInterfaceName",
	SfxBuildItemName:            "SfxBuildItemName",
	SfxBuildWeaponName:          "SfxBuildWeaponName",
	SfxBuildSceneryName:         "SfxBuildSceneryName",
	AttackSetup:                 "AttackSetup",
	DestroyMultObjs:             "DestroyMultObjs",
	UseObjOnObj:                 "UseObjOnObj",
	EndgameSlideshow:            "EndgameSlideshow",
	MoveObjInvenToObj:           "MoveObjInvenToObj",
	EndgameMovie:                "EndgameMovie",
	ObjArtFid:                   "ObjArtFid",
	ArtAnim:                     "ArtAnim",
	PartyMemberObj:              "PartyMemberObj",
	RotationToTile:              "RotationToTile",
	JamLock:                     "JamLock",
	GdialogSetBarterMod:         "GdialogSetBarterMod",
	CombatDifficulty:            "CombatDifficulty",
	ObjOnScreen:                 "ObjOnScreen",
	CritterIsFleeing:            "CritterIsFleeing",
	CritterSetFleeState:         "CritterSetFleeState",
	TerminateCombat:             "TerminateCombat",
	DebugMsg:                    "DebugMsg",
	CritterStopAttacking:        "CritterStopAttacking",
	ConstString:                 "ConstString",
	ConstFloat:                  "ConstFloat",
	ConstLong:                   "ConstLong",
}

var (
	all    []Opcode
	byName map[string]Opcode
)

func init() {
	all = make([]Opcode, 0, len(names))
	byName = make(map[string]Opcode, len(names))
	for op, name := range names {
		all = append(all, op)
		byName[normalize(name)] = op
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
}

// All returns every defined opcode in ascending numeric order.
func All() []Opcode {
	out := make([]Opcode, len(all))
	copy(out, all)
	return out
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	_, ok := names[op]
	return ok
}

// String returns the opcode name, or a hex form for undefined values.
func (op Opcode) String() string {
	if name, ok := names[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(0x%04x)", uint16(op))
}

// LiteralWidth returns the fixed width in bytes of the literal that follows op in the
// code stream. ConstString is variable width: the returned value covers only its
// 2-byte length prefix. Zero-operand opcodes return 0.
func (op Opcode) LiteralWidth() int {
	switch op {
	case ConstLong, ConstFloat:
		return 4
	case ConstShort, ConstString:
		return 2
	default:
		return 0
	}
}

// HasLiteral reports whether op carries an inline literal.
func (op Opcode) HasLiteral() bool {
	return op.LiteralWidth() > 0
}

// Parse resolves a mnemonic to an opcode. Matching ignores case and underscores,
// so "pop_flags_return" and "PopFlagsReturn" name the same instruction.
func Parse(name string) (Opcode, error) {
	if op, ok := byName[normalize(name)]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown opcode mnemonic: %q", name)
}

func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
