package vm

import (
	"fmt"

	"github.com/zurustar/scriptvm/pkg/opcode"
	"github.com/zurustar/scriptvm/pkg/world"
)

// Handler executes one instruction. Operands come from the data stack; literal
// opcodes read their payload from the code stream.
type Handler func(c *Context) (Status, error)

// Instruction binds an opcode to its handler.
type Instruction struct {
	Op      opcode.Opcode
	Handler Handler
	// Suspends whitelists the handler to return Suspend.
	Suspends bool
}

func instr(op opcode.Opcode, h Handler) Instruction {
	return Instruction{Op: op, Handler: h}
}

func suspending(op opcode.Opcode, h Handler) Instruction {
	return Instruction{Op: op, Handler: h, Suspends: true}
}

// unimplemented is shared by every opcode without semantics.
func unimplemented(c *Context) (Status, error) {
	return Continue, NewUnimplementedOpcodeError(c.Op)
}

var instructions = [...]Instruction{
	instr(opcode.ActionBeingUsed, unimplemented),
	instr(opcode.Activateregion, unimplemented),
	instr(opcode.Add, arith("+")),
	instr(opcode.Addbutton, unimplemented),
	instr(opcode.Addbuttonflag, unimplemented),
	instr(opcode.Addbuttongfx, unimplemented),
	instr(opcode.Addbuttonproc, unimplemented),
	instr(opcode.Addbuttonrightproc, unimplemented),
	instr(opcode.Addbuttontext, unimplemented),
	instr(opcode.Addkey, unimplemented),
	instr(opcode.AddMultObjsToInven, unimplemented),
	instr(opcode.Addnamedevent, unimplemented),
	instr(opcode.Addnamedhandler, unimplemented),
	instr(opcode.AddObjToInven, unimplemented),
	instr(opcode.Addregion, unimplemented),
	instr(opcode.Addregionflag, unimplemented),
	instr(opcode.Addregionproc, unimplemented),
	instr(opcode.Addregionrightproc, unimplemented),
	instr(opcode.AddTimerEvent, addTimerEvent),
	instr(opcode.And, logic("&&")),
	instr(opcode.Anim, unimplemented),
	instr(opcode.AnimActionFrame, unimplemented),
	instr(opcode.AnimateMoveObjToTile, animateMoveObjToTile),
	instr(opcode.AnimateStandObj, animateStandObj),
	instr(opcode.AnimateStandReverseObj, unimplemented),
	instr(opcode.AnimBusy, animBusy),
	instr(opcode.ArtAnim, unimplemented),
	instr(opcode.AToD, unimplemented),
	instr(opcode.Attack, unimplemented),
	instr(opcode.Attack80dd, unimplemented),
	instr(opcode.AttackSetup, unimplemented),
	instr(opcode.Bwand, bitwise("&")),
	instr(opcode.Bwnot, bwnot),
	instr(opcode.Bwor, bitwise("|")),
	instr(opcode.Bwxor, bitwise("^")),
	instr(opcode.Call, call),
	instr(opcode.CallAt, unimplemented),
	instr(opcode.CallCondition, unimplemented),
	instr(opcode.Callstart, unimplemented),
	instr(opcode.Cancel, unimplemented),
	instr(opcode.Cancelall, unimplemented),
	instr(opcode.CheckArgCount, checkArgCount),
	instr(opcode.Checkregion, unimplemented),
	instr(opcode.Clearnamed, unimplemented),
	instr(opcode.CombatDifficulty, unimplemented),
	instr(opcode.CombatIsInitialized, unimplemented),
	instr(opcode.ConstFloat, constFloat),
	instr(opcode.ConstLong, constLong),
	instr(opcode.ConstShort, constShort),
	instr(opcode.ConstString, constString),
	instr(opcode.CreateObjectSid, createObjectSid),
	instr(opcode.Createwin, unimplemented),
	instr(opcode.CriticalDone, critical),
	instr(opcode.CriticalDone804b, critical),
	instr(opcode.CriticalStart, critical),
	instr(opcode.CriticalStart804a, critical),
	instr(opcode.CritterAddTrait, unimplemented),
	instr(opcode.CritterAttemptPlacement, unimplemented),
	instr(opcode.CritterDamage, unimplemented),
	instr(opcode.CritterHeal, unimplemented),
	instr(opcode.CritterInjure, unimplemented),
	instr(opcode.CritterInvenObj, unimplemented),
	instr(opcode.CritterIsFleeing, unimplemented),
	instr(opcode.CritterModSkill, unimplemented),
	instr(opcode.CritterRmTrait, unimplemented),
	instr(opcode.CritterSetFleeState, unimplemented),
	instr(opcode.CritterState, unimplemented),
	instr(opcode.CritterStopAttacking, unimplemented),
	instr(opcode.CurMapIndex, curMapIndex),
	instr(opcode.DaysSinceVisited, unimplemented),
	instr(opcode.DebugMsg, debugMsg),
	instr(opcode.Deletebutton, unimplemented),
	instr(opcode.Deletekey, unimplemented),
	instr(opcode.Deleteregion, unimplemented),
	instr(opcode.Deletewin, unimplemented),
	instr(opcode.DestroyMultObjs, unimplemented),
	instr(opcode.DestroyObject, destroyObject),
	instr(opcode.Detach, unimplemented),
	instr(opcode.DialogueReaction, unimplemented),
	instr(opcode.DialogueSystemEnter, unimplemented),
	instr(opcode.DifficultyLevel, unimplemented),
	instr(opcode.Display, unimplemented),
	instr(opcode.Displaygfx, unimplemented),
	instr(opcode.DisplayMsg, displayMsg),
	instr(opcode.Displayraw, unimplemented),
	instr(opcode.Div, arith("/")),
	instr(opcode.DoCheck, unimplemented),
	instr(opcode.DropObj, unimplemented),
	instr(opcode.DToA, unimplemented),
	instr(opcode.DudeObj, dudeObj),
	instr(opcode.Dump, dump),
	instr(opcode.Dup, dup),
	instr(opcode.Elevation, elevation),
	instr(opcode.EndDialogue, endDialogue),
	instr(opcode.EndgameMovie, unimplemented),
	instr(opcode.EndgameSlideshow, unimplemented),
	instr(opcode.Equal, compare("==")),
	instr(opcode.Exec, unimplemented),
	instr(opcode.Exit, unimplemented),
	instr(opcode.ExitProg, exitProg),
	instr(opcode.Explosion, unimplemented),
	instr(opcode.ExportProc, exportProc),
	instr(opcode.ExportVar, exportVar),
	instr(opcode.Fadein, unimplemented),
	instr(opcode.Fadeout, unimplemented),
	instr(opcode.Fetch, fetchLocal),
	instr(opcode.FetchExternal, fetchExternal),
	instr(opcode.FetchGlobal, fetchProgramVar),
	instr(opcode.FetchProcAddress, fetchProcAddress),
	instr(opcode.Fillrect, unimplemented),
	instr(opcode.Fillwin, unimplemented),
	instr(opcode.Fillwin3X3, unimplemented),
	instr(opcode.FixedParam, fixedParam),
	instr(opcode.FloatMsg, floatMsg),
	instr(opcode.Floor, floor),
	instr(opcode.Fork, unimplemented),
	instr(opcode.Format, unimplemented),
	instr(opcode.GameTicks, gameTicks),
	instr(opcode.GameTime, gameTime),
	instr(opcode.GameTimeAdvance, unimplemented),
	instr(opcode.GameTimeHour, gameTimeHour),
	instr(opcode.GameTimeInSeconds, gameTimeInSeconds),
	instr(opcode.GameUiDisable, unimplemented),
	instr(opcode.GameUiEnable, unimplemented),
	instr(opcode.GameUiIsDisabled, unimplemented),
	instr(opcode.GdialogBarter, unimplemented),
	instr(opcode.GdialogSetBarterMod, unimplemented),
	instr(opcode.GetCritterStat, getCritterStat),
	instr(opcode.GetDay, unimplemented),
	instr(opcode.GetMonth, unimplemented),
	instr(opcode.GetPcStat, unimplemented),
	instr(opcode.GetPoison, unimplemented),
	instr(opcode.GfadeIn, unimplemented),
	instr(opcode.GfadeOut, unimplemented),
	instr(opcode.GiqOption, giqOption),
	instr(opcode.GiveExpPoints, unimplemented),
	instr(opcode.GlobalVar, globalVar),
	instr(opcode.Gotoxy, unimplemented),
	instr(opcode.Greater, compare(">")),
	instr(opcode.GreaterEqual, compare(">=")),
	suspending(opcode.GsayEnd, gsayEnd),
	instr(opcode.GsayMessage, gsayMessage),
	instr(opcode.GsayOption, gsayOption),
	instr(opcode.GsayReply, gsayReply),
	instr(opcode.GsayStart, gsayStart),
	instr(opcode.HasSkill, unimplemented),
	instr(opcode.HasTrait, unimplemented),
	instr(opcode.Hidemouse, unimplemented),
	instr(opcode.HowMuch, unimplemented),
	instr(opcode.If, ifOp),
	instr(opcode.InvenCmds, unimplemented),
	instr(opcode.InvenUnwield, unimplemented),
	instr(opcode.IsCritical, unimplemented),
	instr(opcode.IsSuccess, unimplemented),
	instr(opcode.ItemCapsAdjust, unimplemented),
	instr(opcode.ItemCapsTotal, unimplemented),
	instr(opcode.JamLock, unimplemented),
	instr(opcode.Jmp, jmp),
	instr(opcode.KillCritter, unimplemented),
	instr(opcode.KillCritterType, unimplemented),
	instr(opcode.Less, compare("<")),
	instr(opcode.LessEqual, compare("<=")),
	instr(opcode.LoadMap, unimplemented),
	instr(opcode.Loadpalettetable, unimplemented),
	instr(opcode.LocalVar, localVar),
	instr(opcode.LookupStringProc, lookupStringProc),
	instr(opcode.MapVar, mapVar),
	instr(opcode.MarkAreaKnown, unimplemented),
	instr(opcode.MessageStr, messageStr),
	instr(opcode.Metarule, unimplemented),
	instr(opcode.Metarule3, unimplemented),
	instr(opcode.Mod, arith("%")),
	instr(opcode.Mouseshape, unimplemented),
	instr(opcode.MoveObjInvenToObj, unimplemented),
	instr(opcode.MoveTo, moveTo),
	instr(opcode.Movieflags, unimplemented),
	instr(opcode.Mul, arith("*")),
	instr(opcode.Negate, negate),
	instr(opcode.Noop8000, noop),
	instr(opcode.Noop80d1, noop),
	instr(opcode.Not, not),
	instr(opcode.NotEqual, compare("!=")),
	instr(opcode.ObjArtFid, unimplemented),
	instr(opcode.ObjBeingUsedWith, unimplemented),
	instr(opcode.ObjCanHearObj, unimplemented),
	instr(opcode.ObjCanSeeObj, unimplemented),
	instr(opcode.ObjCarryingPidObj, unimplemented),
	instr(opcode.ObjClose, objSetOpen(false)),
	instr(opcode.ObjIsCarryingObjPid, unimplemented),
	instr(opcode.ObjIsLocked, objIsLocked),
	instr(opcode.ObjIsOpen, objIsOpen),
	instr(opcode.ObjItemSubtype, unimplemented),
	instr(opcode.ObjLock, objSetLocked(true)),
	instr(opcode.ObjName, objName),
	instr(opcode.ObjOnScreen, unimplemented),
	instr(opcode.ObjOpen, objSetOpen(true)),
	instr(opcode.ObjPid, objPid),
	instr(opcode.ObjSetLightLevel, unimplemented),
	instr(opcode.ObjType, unimplemented),
	instr(opcode.ObjUnlock, objSetLocked(false)),
	instr(opcode.Or, logic("||")),
	instr(opcode.OverrideMapStart, unimplemented),
	instr(opcode.PartyAdd, unimplemented),
	instr(opcode.PartyMemberObj, unimplemented),
	instr(opcode.PartyRemove, unimplemented),
	instr(opcode.PickupObj, unimplemented),
	instr(opcode.PlayGmovie, unimplemented),
	instr(opcode.Playmovie, unimplemented),
	instr(opcode.Playmovierect, unimplemented),
	instr(opcode.PlaySfx, unimplemented),
	instr(opcode.Poison, unimplemented),
	instr(opcode.Pop, pop),
	instr(opcode.PopAddress, unimplemented),
	instr(opcode.PopBase, popBase),
	instr(opcode.PopExit, ret(retFlags{Exit: true})),
	instr(opcode.PopFlags, popFlags),
	instr(opcode.PopFlagsExit, ret(retFlags{Exit: true})),
	instr(opcode.PopFlagsExitExtern, ret(retFlags{Exit: true, Extern: true})),
	instr(opcode.PopFlagsReturn, ret(retFlags{})),
	instr(opcode.PopFlagsReturnExtern, ret(retFlags{Extern: true})),
	instr(opcode.PopFlagsReturnValExit, ret(retFlags{Value: true, Exit: true})),
	instr(opcode.PopFlagsReturnValExitExtern, ret(retFlags{Value: true, Exit: true, Extern: true})),
	instr(opcode.PopFlagsReturnValExtern, ret(retFlags{Value: true, Extern: true})),
	instr(opcode.PopReturn, ret(retFlags{})),
	instr(opcode.PopToBase, popToBase),
	instr(opcode.Print, unimplemented),
	instr(opcode.Printrect, unimplemented),
	instr(opcode.ProtoData, unimplemented),
	instr(opcode.PushBase, pushBase),
	instr(opcode.RadiationDec, unimplemented),
	instr(opcode.RadiationInc, unimplemented),
	instr(opcode.Random, random),
	instr(opcode.ReactionInfluence, unimplemented),
	instr(opcode.Refreshmouse, unimplemented),
	instr(opcode.RegAnimAnimate, regAnimAnimate),
	instr(opcode.RegAnimAnimateForever, regAnimAnimateForever),
	instr(opcode.RegAnimAnimateReverse, unimplemented),
	instr(opcode.RegAnimFunc, regAnimFunc),
	instr(opcode.RegAnimObjMoveToObj, unimplemented),
	instr(opcode.RegAnimObjMoveToTile, regAnimMoveToTile(world.AnimWalk)),
	instr(opcode.RegAnimObjRunToObj, unimplemented),
	instr(opcode.RegAnimObjRunToTile, regAnimMoveToTile(world.AnimRunning)),
	instr(opcode.RegAnimPlaySfx, unimplemented),
	instr(opcode.Resizewin, unimplemented),
	instr(opcode.RmMultObjsFromInven, unimplemented),
	instr(opcode.RmObjFromInven, unimplemented),
	instr(opcode.RmTimerEvent, rmTimerEvent),
	instr(opcode.RollDice, unimplemented),
	instr(opcode.RollVsSkill, unimplemented),
	instr(opcode.RotationToTile, rotationToTile),
	instr(opcode.RunningBurningGuy, unimplemented),
	instr(opcode.Sayborder, unimplemented),
	instr(opcode.Sayend, unimplemented),
	instr(opcode.Saygetlastpos, unimplemented),
	instr(opcode.Saygotoreply, unimplemented),
	instr(opcode.Saymessage, unimplemented),
	instr(opcode.Saymessagetimeout, unimplemented),
	instr(opcode.Sayoption, unimplemented),
	instr(opcode.Sayoptioncolor, unimplemented),
	instr(opcode.Sayoptionflags, unimplemented),
	instr(opcode.Sayoptionwindow, unimplemented),
	instr(opcode.Sayquit, unimplemented),
	instr(opcode.Sayreply, unimplemented),
	instr(opcode.Sayreplycolor, unimplemented),
	instr(opcode.Sayreplyflags, unimplemented),
	instr(opcode.Sayreplytitle, unimplemented),
	instr(opcode.Sayreplywindow, unimplemented),
	instr(opcode.Sayrestart, unimplemented),
	instr(opcode.Sayscrolldown, unimplemented),
	instr(opcode.Sayscrollup, unimplemented),
	instr(opcode.Saysetspacing, unimplemented),
	instr(opcode.Saystart, unimplemented),
	instr(opcode.Saystartpos, unimplemented),
	instr(opcode.Scalewin, unimplemented),
	instr(opcode.ScriptAction, unimplemented),
	instr(opcode.ScriptOverrides, scriptOverrides),
	instr(opcode.ScrReturn, unimplemented),
	instr(opcode.Selectfilelist, unimplemented),
	instr(opcode.Selectwin, unimplemented),
	instr(opcode.SelfObj, selfObj),
	instr(opcode.SetCritterStat, setCritterStat),
	instr(opcode.SetExitGrids, unimplemented),
	instr(opcode.Setfont, unimplemented),
	instr(opcode.SetGlobal, setGlobal),
	instr(opcode.Setglobalmousefunc, unimplemented),
	instr(opcode.SetGlobalVar, setGlobalVar),
	instr(opcode.Sethighlightcolor, unimplemented),
	instr(opcode.SetLightLevel, unimplemented),
	instr(opcode.SetLocalVar, setLocalVar),
	instr(opcode.SetMapMusic, unimplemented),
	instr(opcode.SetMapStart, unimplemented),
	instr(opcode.SetMapVar, setMapVar),
	instr(opcode.SetObjVisibility, setObjVisibility),
	instr(opcode.Setoneoptpause, unimplemented),
	instr(opcode.Settextcolor, unimplemented),
	instr(opcode.Settextflags, unimplemented),
	instr(opcode.SfxBuildAmbientName, unimplemented),
	instr(opcode.SfxBuildCharName, unimplemented),
	instr(opcode.SfxBuildInterfaceName, unimplemented),
	instr(opcode.SfxBuildItemName, unimplemented),
	instr(opcode.SfxBuildOpenName, unimplemented),
	instr(opcode.SfxBuildSceneryName, unimplemented),
	instr(opcode.SfxBuildWeaponName, unimplemented),
	instr(opcode.Showmouse, unimplemented),
	instr(opcode.Showwin, unimplemented),
	instr(opcode.Signalnamed, unimplemented),
	instr(opcode.SkillContest, unimplemented),
	instr(opcode.Sounddelete, unimplemented),
	instr(opcode.Soundpause, unimplemented),
	instr(opcode.Soundplay, unimplemented),
	instr(opcode.Soundresume, unimplemented),
	instr(opcode.Soundrewind, unimplemented),
	instr(opcode.Soundstop, unimplemented),
	instr(opcode.SourceObj, sourceObj),
	instr(opcode.Spawn, unimplemented),
	instr(opcode.StartGdialog, startGdialog),
	instr(opcode.Stopmovie, unimplemented),
	instr(opcode.StopProg, unimplemented),
	instr(opcode.Store, storeLocal),
	instr(opcode.StoreExternal, storeExternal),
	instr(opcode.StoreGlobal, storeProgramVar),
	instr(opcode.Sub, arith("-")),
	instr(opcode.Swap, swap),
	instr(opcode.Swapa, unimplemented),
	instr(opcode.TargetObj, targetObj),
	instr(opcode.TerminateCombat, unimplemented),
	instr(opcode.TileContainsObjPid, tileContainsPidObj),
	instr(opcode.TileContainsPidObj, tileContainsPidObj),
	instr(opcode.TileDistance, tileDistance),
	instr(opcode.TileDistanceObjs, tileDistanceObjs),
	instr(opcode.TileInTileRect, tileInTileRect),
	instr(opcode.TileIsVisible, unimplemented),
	instr(opcode.TileNum, tileNum),
	instr(opcode.TileNumInDirection, tileNumInDirection),
	instr(opcode.Tokenize, unimplemented),
	instr(opcode.UseObj, unimplemented),
	instr(opcode.UseObjOnObj, unimplemented),
	instr(opcode.UsingSkill, unimplemented),
	instr(opcode.Wait, unimplemented),
	instr(opcode.While, whileOp),
	instr(opcode.WieldObjCritter, unimplemented),
	instr(opcode.WmAreaSetPos, unimplemented),
	instr(opcode.WorldMap, unimplemented),
}

var defaultTable = buildTable()

// buildTable indexes the instruction list by opcode value. Every defined opcode
// must appear exactly once.
func buildTable() map[opcode.Opcode]Instruction {
	table := make(map[opcode.Opcode]Instruction, len(instructions))
	for _, ins := range instructions {
		if !ins.Op.Valid() {
			panic(fmt.Sprintf("vm: instruction for undefined opcode 0x%04x", uint16(ins.Op)))
		}
		if _, dup := table[ins.Op]; dup {
			panic(fmt.Sprintf("vm: duplicate instruction for %s", ins.Op))
		}
		table[ins.Op] = ins
	}
	for _, op := range opcode.All() {
		if _, ok := table[op]; !ok {
			panic(fmt.Sprintf("vm: no instruction for %s", op))
		}
	}
	return table
}
